package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/stan.go"

	"setrag/internal/metrics"
	"setrag/internal/models"
	"setrag/internal/search"
)

const indexTimeout = 10 * time.Second

// errMalformed marks messages that redelivery cannot fix
var errMalformed = errors.New("malformed event")

// Indexer is satisfied by *search.ElasticsearchClient
type Indexer interface {
	IndexBooking(ctx context.Context, doc *search.BookingDocument) error
}

type Handlers struct {
	index Indexer
}

func NewHandlers(index Indexer) *Handlers {
	return &Handlers{index: index}
}

func (h *Handlers) HandleBookingConfirmed(m *stan.Msg) {
	ack(m, h.bookingConfirmed(m.Data))
}

func (h *Handlers) HandleReconciliationRequired(m *stan.Msg) {
	ack(m, h.reconciliationRequired(m.Data))
}

func (h *Handlers) HandleSeatEvent(m *stan.Msg) {
	ack(m, h.seatEvent(m.Subject, m.Data))
}

func (h *Handlers) HandleTripSeeded(m *stan.Msg) {
	ack(m, h.tripSeeded(m.Data))
}

// ack confirms handled and malformed messages. Anything else is left for
// redelivery after the ack wait.
func ack(m *stan.Msg, err error) {
	if err != nil && !errors.Is(err, errMalformed) {
		slog.Error("Event handling failed, awaiting redelivery", "subject", m.Subject, "sequence", m.Sequence, "error", err)
		return
	}
	if err != nil {
		slog.Error("Dropping malformed event", "subject", m.Subject, "sequence", m.Sequence, "error", err)
	}
	if ackErr := m.Ack(); ackErr != nil {
		slog.Warn("Failed to ack event", "subject", m.Subject, "error", ackErr)
	}
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	return nil
}

func (h *Handlers) bookingConfirmed(data []byte) error {
	var event models.BookingConfirmedEvent
	if err := decode(data, &event); err != nil {
		return err
	}
	if event.Booking.PNR == "" {
		return fmt.Errorf("%w: booking without pnr", errMalformed)
	}

	slog.Info("Processing booking confirmed event", "pnr", event.Booking.PNR, "trip_id", event.Booking.TripID, "seat_no", event.Booking.SeatNo)

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	doc := search.FromBooking(event.Booking)
	if err := h.index.IndexBooking(ctx, &doc); err != nil {
		return fmt.Errorf("index booking %s: %w", event.Booking.PNR, err)
	}
	return nil
}

func (h *Handlers) reconciliationRequired(data []byte) error {
	var event models.ReconciliationRequiredEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	slog.Error("Seat sold without a booking",
		"trip_id", event.TripID,
		"seat_no", event.SeatNo,
		"idempotency_key", event.IdempotencyKey,
		"reason", event.Reason,
		"error", event.Error,
	)
	metrics.TrackReconciliation(event.Reason, "consumer")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	doc := search.FromReconciliation(event)
	if err := h.index.IndexBooking(ctx, &doc); err != nil {
		return fmt.Errorf("index reconciliation for trip %d seat %s: %w", event.TripID, event.SeatNo, err)
	}
	return nil
}

func (h *Handlers) seatEvent(subject string, data []byte) error {
	var event models.SeatEvent
	if err := decode(data, &event); err != nil {
		return err
	}
	slog.Info("Seat event", "subject", subject, "trip_id", event.TripID, "seat_no", event.SeatNo, "status", event.Status)
	return nil
}

func (h *Handlers) tripSeeded(data []byte) error {
	var event models.TripSeededEvent
	if err := decode(data, &event); err != nil {
		return err
	}
	slog.Info("Trip seeded", "trip_id", event.TripID, "seats", event.SeatCount)
	return nil
}
