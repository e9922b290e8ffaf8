package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "setrag/internal/errors"
	"setrag/internal/logger"
	"setrag/internal/metrics"
	"setrag/internal/models"
)

const (
	DefaultSeedCount = 100
	MaxSeedCount     = 1000
	MaxHold          = 24 * time.Hour
)

// LedgerService is the only writer of seat state.
type LedgerService struct {
	seats       SeatStore
	trips       TripStore
	publisher   Publisher
	defaultHold time.Duration
	now         func() time.Time
}

func NewLedgerService(seats SeatStore, trips TripStore, publisher Publisher, defaultHold time.Duration) *LedgerService {
	if defaultHold <= 0 {
		defaultHold = 15 * time.Minute
	}
	return &LedgerService{
		seats:       seats,
		trips:       trips,
		publisher:   publisher,
		defaultHold: defaultHold,
		now:         time.Now,
	}
}

// WithClock replaces the time source.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// Seed creates count seats for a trip. On an already seeded trip it returns
// the existing seats with created=false.
func (s *LedgerService) Seed(ctx context.Context, tripID int64, count int) ([]models.Seat, bool, error) {
	if tripID <= 0 {
		return nil, false, fmt.Errorf("%w: invalid trip id", apperrors.ErrValidation)
	}
	if count < 1 || count > MaxSeedCount {
		return nil, false, fmt.Errorf("%w: count must be between 1 and %d", apperrors.ErrValidation, MaxSeedCount)
	}

	seats, created, err := s.seats.Seed(ctx, tripID, count)
	s.track("seed", err)
	if err != nil {
		return nil, false, fmt.Errorf("failed to seed trip %d: %w", tripID, err)
	}

	now := s.now()
	for i := range seats {
		seats[i] = seats[i].Effective(now)
	}

	if created {
		logger.WithContext(ctx).Info("Trip seeded", "trip_id", tripID, "seats", len(seats))
		publish(ctx, s.publisher, models.EventTripSeeded, models.TripSeededEvent{
			TripID:    tripID,
			SeatCount: len(seats),
			Timestamp: now.UTC(),
		})
	}

	return seats, created, nil
}

// Allocate holds the first eligible seat of a trip. A zero hold uses the default.
func (s *LedgerService) Allocate(ctx context.Context, tripID int64, hold time.Duration) (*models.Seat, error) {
	if hold == 0 {
		hold = s.defaultHold
	}
	if hold < 0 || hold > MaxHold {
		return nil, fmt.Errorf("%w: hold must be positive and at most %s", apperrors.ErrValidation, MaxHold)
	}

	now := s.now()
	seat, err := s.seats.Allocate(ctx, tripID, now, now.Add(hold))
	s.track("allocate", err)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate seat on trip %d: %w", tripID, err)
	}

	logger.WithContext(ctx).Info("Seat held", "trip_id", tripID, "seat_no", seat.SeatNo, "hold_expiry", seat.HoldExpiresAt)
	publish(ctx, s.publisher, models.EventSeatHeld, models.SeatEvent{
		TripID:        tripID,
		SeatNo:        seat.SeatNo,
		Status:        seat.Status,
		HoldExpiresAt: seat.HoldExpiresAt,
		Timestamp:     now.UTC(),
	})

	return seat, nil
}

// Confirm sells a seat. HELD and AVAILABLE seats are both confirmable.
func (s *LedgerService) Confirm(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error) {
	if seatNo == "" {
		return nil, fmt.Errorf("%w: seat_no is required", apperrors.ErrValidation)
	}

	now := s.now()
	seat, err := s.seats.Confirm(ctx, tripID, seatNo, now)
	s.track("confirm", err)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm seat %s on trip %d: %w", seatNo, tripID, err)
	}

	logger.WithContext(ctx).Info("Seat sold", "trip_id", tripID, "seat_no", seatNo)
	publish(ctx, s.publisher, models.EventSeatSold, models.SeatEvent{
		TripID:    tripID,
		SeatNo:    seatNo,
		Status:    seat.Status,
		Timestamp: now.UTC(),
	})

	return seat, nil
}

// Release frees a HELD seat. Releasing an AVAILABLE seat is a no-op and a
// SOLD seat is never released.
func (s *LedgerService) Release(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error) {
	if seatNo == "" {
		return nil, fmt.Errorf("%w: seat_no is required", apperrors.ErrValidation)
	}

	now := s.now()
	seat, err := s.seats.Release(ctx, tripID, seatNo, now)
	s.track("release", err)
	if err != nil {
		return nil, fmt.Errorf("failed to release seat %s on trip %d: %w", seatNo, tripID, err)
	}

	logger.WithContext(ctx).Info("Seat released", "trip_id", tripID, "seat_no", seatNo)
	publish(ctx, s.publisher, models.EventSeatReleased, models.SeatEvent{
		TripID:    tripID,
		SeatNo:    seatNo,
		Status:    seat.Status,
		Timestamp: now.UTC(),
	})

	return seat, nil
}

// List returns the seats of a trip with expired holds read as AVAILABLE.
func (s *LedgerService) List(ctx context.Context, tripID int64) ([]models.Seat, error) {
	seats, err := s.seats.List(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats of trip %d: %w", tripID, err)
	}

	now := s.now()
	for i := range seats {
		seats[i] = seats[i].Effective(now)
	}
	return seats, nil
}

func (s *LedgerService) ResolveTrip(ctx context.Context, tripID int64) (*models.TripRoute, error) {
	route, err := s.trips.GetRoute(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trip %d: %w", tripID, err)
	}
	return route, nil
}

// Occupancy reports effective counts. It never writes seat state.
func (s *LedgerService) Occupancy(ctx context.Context) ([]models.TripOccupancy, error) {
	return s.seats.Occupancy(ctx, s.now())
}

func (s *LedgerService) track(operation string, err error) {
	metrics.TrackSeatOperation(operation, outcomeOf(err))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, apperrors.ErrNoSeatsAvailable), errors.Is(err, apperrors.ErrSeatNotConfirmable):
		return metrics.OutcomeConflict
	case errors.Is(err, apperrors.ErrSeatNotFound), errors.Is(err, apperrors.ErrTripNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
