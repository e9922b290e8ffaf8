package models

import "time"

// NATS subjects
const (
	EventTripSeeded                    = "trip.seeded"
	EventSeatHeld                      = "seat.held"
	EventSeatSold                      = "seat.sold"
	EventSeatReleased                  = "seat.released"
	EventBookingConfirmed              = "booking.confirmed"
	EventBookingReconciliationRequired = "booking.reconciliation_required"
)

// Reconciliation reasons
const (
	ReasonPersistFailed         = "persist_failed"
	ReasonIdempotencyRace       = "idempotency_race"
	ReasonConfirmOutcomeUnknown = "confirm_outcome_unknown"
)

// TripSeededEvent is published once per trip, on the seed call that creates seats
type TripSeededEvent struct {
	TripID    int64     `json:"trip_id"`
	SeatCount int       `json:"seat_count"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatEvent covers held, sold and released transitions
type SeatEvent struct {
	TripID        int64      `json:"trip_id"`
	SeatNo        string     `json:"seat_no"`
	Status        SeatStatus `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expiry,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// BookingConfirmedEvent carries the committed booking
type BookingConfirmedEvent struct {
	Booking   Booking   `json:"booking"`
	Timestamp time.Time `json:"timestamp"`
}

// ReconciliationRequiredEvent reports a SOLD seat without a matching booking
type ReconciliationRequiredEvent struct {
	TripID         int64     `json:"trip_id"`
	SeatNo         string    `json:"seat_no"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Reason         string    `json:"reason"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
