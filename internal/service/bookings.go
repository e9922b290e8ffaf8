package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "setrag/internal/errors"
	"setrag/internal/logger"
	"setrag/internal/metrics"
	"setrag/internal/models"
)

const (
	maxPNRAttempts      = 3
	maxIdempotencyKey   = 255
	compensationTimeout = 5 * time.Second
	persistTimeout      = 10 * time.Second
)

// BookCommand is one passenger's request to book a seat on a trip
type BookCommand struct {
	TripID         int64
	Passengers     int
	IdempotencyKey string
	Principal      string
}

// BookOutcome carries the result and the exact bytes stored under the
// idempotency key, so replays can return them verbatim.
type BookOutcome struct {
	Result   models.BookingResult
	Response []byte
	Replayed bool
}

// BookingService runs the booking saga: allocate, quote, confirm, persist.
type BookingService struct {
	ledger    SeatLedger
	directory TripDirectory
	pricing   *PriceCalculator
	store     BookingStore
	publisher Publisher
	hold      time.Duration
	newPNR    func() string
}

func NewBookingService(ledger SeatLedger, directory TripDirectory, pricing *PriceCalculator, store BookingStore, publisher Publisher, hold time.Duration) *BookingService {
	return &BookingService{
		ledger:    ledger,
		directory: directory,
		pricing:   pricing,
		store:     store,
		publisher: publisher,
		hold:      hold,
		newPNR:    NewPNR,
	}
}

// Quote prices a trip. Directory failures are returned, never priced at a default fare.
func (s *BookingService) Quote(ctx context.Context, tripID int64) (*models.PriceQuote, error) {
	if tripID <= 0 {
		return nil, fmt.Errorf("%w: invalid trip id", apperrors.ErrValidation)
	}

	route, err := s.directory.ResolveTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trip %d: %w", tripID, err)
	}

	quote := s.pricing.Quote(route.Origin, route.Destination)
	return &quote, nil
}

func (s *BookingService) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	if pnr == "" {
		return nil, fmt.Errorf("%w: pnr is required", apperrors.ErrValidation)
	}
	return s.store.GetByPNR(ctx, pnr)
}

func (s *BookingService) Book(ctx context.Context, cmd BookCommand) (*BookOutcome, error) {
	log := logger.WithContext(ctx).With("trip_id", cmd.TripID, "idempotency_key", cmd.IdempotencyKey)

	if err := validateBook(&cmd); err != nil {
		metrics.TrackSaga("invalid")
		return nil, err
	}

	if cmd.IdempotencyKey != "" {
		outcome, err := s.lookup(ctx, cmd.IdempotencyKey)
		if err != nil {
			metrics.TrackSaga(metrics.OutcomeError)
			return nil, err
		}
		if outcome != nil {
			log.Info("Idempotent replay", "pnr", outcome.Result.PNR)
			metrics.TrackSaga(metrics.OutcomeReplay)
			return outcome, nil
		}
	}

	done := metrics.TimeStep("allocate")
	seat, err := s.ledger.Allocate(ctx, cmd.TripID, s.hold)
	done()
	if err != nil {
		log.Warn("Allocate failed", "error", err)
		if errors.Is(err, apperrors.ErrTripNotFound) {
			s.forgetRoute(ctx, cmd.TripID)
		}
		metrics.TrackSaga(outcomeOf(err))
		return nil, fmt.Errorf("allocate: %w", err)
	}
	log = log.With("seat_no", seat.SeatNo)

	done = metrics.TimeStep("quote")
	quote, err := s.Quote(ctx, cmd.TripID)
	done()
	if err != nil {
		log.Warn("Quote failed, releasing seat", "error", err)
		s.compensate(ctx, cmd.TripID, seat.SeatNo)
		metrics.TrackSaga("compensated")
		return nil, fmt.Errorf("quote: %w", err)
	}

	done = metrics.TimeStep("confirm")
	_, err = s.ledger.Confirm(ctx, cmd.TripID, seat.SeatNo)
	done()
	if err != nil {
		log.Warn("Confirm failed, releasing seat", "error", err)
		relErr := s.compensate(ctx, cmd.TripID, seat.SeatNo)
		// an unanswered confirm that left the seat SOLD
		if errors.Is(err, apperrors.ErrDownstreamUnavailable) && errors.Is(relErr, apperrors.ErrSeatNotConfirmable) {
			return nil, s.reconcile(ctx, cmd, seat.SeatNo, models.ReasonConfirmOutcomeUnknown, err)
		}
		metrics.TrackSaga("compensated")
		return nil, fmt.Errorf("confirm: %w", err)
	}

	// the seat is SOLD from here on; losing the caller must not lose the booking
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	done = metrics.TimeStep("persist")
	outcome, err := s.persist(persistCtx, cmd, seat.SeatNo, quote)
	done()
	if err != nil {
		return nil, err
	}

	if outcome.Replayed {
		metrics.TrackSaga(metrics.OutcomeReplay)
	} else {
		log.Info("Booking confirmed", "pnr", outcome.Result.PNR, "amount", outcome.Result.Amount)
		metrics.TrackSaga(metrics.OutcomeOK)
	}
	return outcome, nil
}

func validateBook(cmd *BookCommand) error {
	if cmd.TripID <= 0 {
		return fmt.Errorf("%w: invalid trip id", apperrors.ErrValidation)
	}
	if cmd.Passengers == 0 {
		cmd.Passengers = 1
	}
	if cmd.Passengers != 1 {
		return fmt.Errorf("%w: exactly one passenger per booking", apperrors.ErrValidation)
	}
	if len(cmd.IdempotencyKey) > maxIdempotencyKey {
		return fmt.Errorf("%w: idempotency key longer than %d", apperrors.ErrValidation, maxIdempotencyKey)
	}
	return nil
}

// lookup returns nil, nil when the key has no committed outcome.
func (s *BookingService) lookup(ctx context.Context, key string) (*BookOutcome, error) {
	rec, err := s.store.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w: %w", apperrors.ErrDownstreamUnavailable, err)
	}
	if rec == nil {
		return nil, nil
	}

	outcome := &BookOutcome{Response: rec.Response, Replayed: true}
	if err := json.Unmarshal(rec.Response, &outcome.Result); err != nil {
		return nil, fmt.Errorf("corrupt idempotency record %s: %w", key, err)
	}
	return outcome, nil
}

func (s *BookingService) persist(ctx context.Context, cmd BookCommand, seatNo string, quote *models.PriceQuote) (*BookOutcome, error) {
	booking := &models.Booking{
		TripID:   cmd.TripID,
		SeatNo:   seatNo,
		Amount:   quote.TotalPrice,
		Currency: quote.Currency,
		Status:   models.BookingConfirmed,
	}
	if cmd.IdempotencyKey != "" {
		key := cmd.IdempotencyKey
		booking.IdempotencyKey = &key
	}
	if cmd.Principal != "" {
		principal := cmd.Principal
		booking.Principal = &principal
	}

	var err error
	for attempt := 1; attempt <= maxPNRAttempts; attempt++ {
		booking.PNR = s.newPNR()
		result := booking.Result()

		var response []byte
		response, err = json.Marshal(result)
		if err != nil {
			break
		}

		err = s.store.Create(ctx, booking, response)
		switch {
		case err == nil:
			publish(ctx, s.publisher, models.EventBookingConfirmed, models.BookingConfirmedEvent{
				Booking:   *booking,
				Timestamp: time.Now().UTC(),
			})
			return &BookOutcome{Result: result, Response: response}, nil

		case errors.Is(err, apperrors.ErrPNRCollision):
			logger.WithContext(ctx).Warn("PNR collision, regenerating", "attempt", attempt)
			continue

		case errors.Is(err, apperrors.ErrIdempotencyConflict):
			committed, lookupErr := s.lookup(ctx, cmd.IdempotencyKey)
			if lookupErr != nil || committed == nil {
				return nil, s.reconcile(ctx, cmd, seatNo, models.ReasonPersistFailed, err)
			}
			// a concurrent request with the same key won; our seat stays sold
			s.report(ctx, cmd, seatNo, models.ReasonIdempotencyRace, err)
			return committed, nil
		}
		break
	}

	return nil, s.reconcile(ctx, cmd, seatNo, models.ReasonPersistFailed, err)
}

func (s *BookingService) reconcile(ctx context.Context, cmd BookCommand, seatNo, reason string, cause error) error {
	s.report(ctx, cmd, seatNo, reason, cause)
	metrics.TrackSaga("reconciliation")
	return fmt.Errorf("%w: trip %d seat %s: %w", apperrors.ErrReconciliationRequired, cmd.TripID, seatNo, cause)
}

func (s *BookingService) report(ctx context.Context, cmd BookCommand, seatNo, reason string, cause error) {
	logger.WithContext(ctx).Error("Seat sold without a booking, reconciliation required",
		"trip_id", cmd.TripID, "seat_no", seatNo, "reason", reason, "error", cause)
	metrics.TrackReconciliation(reason, "booking")

	event := models.ReconciliationRequiredEvent{
		TripID:         cmd.TripID,
		SeatNo:         seatNo,
		IdempotencyKey: cmd.IdempotencyKey,
		Reason:         reason,
		Timestamp:      time.Now().UTC(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	publish(ctx, s.publisher, models.EventBookingReconciliationRequired, event)
}

// forgetRoute drops a cached route once inventory no longer knows the trip.
func (s *BookingService) forgetRoute(ctx context.Context, tripID int64) {
	inv, ok := s.directory.(RouteInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, tripID); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate cached route", "trip_id", tripID, "error", err)
	}
}

// compensate releases a held seat once. If it fails the hold expires on its
// own, unless the seat was already sold.
func (s *BookingService) compensate(ctx context.Context, tripID int64, seatNo string) error {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	log := logger.WithContext(ctx).With("trip_id", tripID, "seat_no", seatNo)
	if _, err := s.ledger.Release(relCtx, tripID, seatNo); err != nil {
		if errors.Is(err, apperrors.ErrSeatNotConfirmable) {
			log.Error("Compensating release refused, seat is already sold", "error", err)
		} else {
			log.Warn("Compensating release failed, seat stays held until expiry", "error", err)
		}
		return err
	}
	log.Info("Seat released after saga failure")
	return nil
}
