package service

import (
	"context"
	"time"

	"setrag/internal/models"
	"setrag/internal/repository"
)

// SeatStore persists seats. Implementations make Allocate atomic per trip
// and take the current time from the caller.
type SeatStore interface {
	Seed(ctx context.Context, tripID int64, count int) ([]models.Seat, bool, error)
	Allocate(ctx context.Context, tripID int64, now, holdUntil time.Time) (*models.Seat, error)
	Confirm(ctx context.Context, tripID int64, seatNo string, now time.Time) (*models.Seat, error)
	Release(ctx context.Context, tripID int64, seatNo string, now time.Time) (*models.Seat, error)
	List(ctx context.Context, tripID int64) ([]models.Seat, error)
	Occupancy(ctx context.Context, now time.Time) ([]models.TripOccupancy, error)
}

type TripStore interface {
	GetRoute(ctx context.Context, tripID int64) (*models.TripRoute, error)
}

// SeatLedger is what the orchestrator needs from the inventory authority,
// whether it runs in process or behind HTTP.
type SeatLedger interface {
	Allocate(ctx context.Context, tripID int64, hold time.Duration) (*models.Seat, error)
	Confirm(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error)
	Release(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error)
}

type TripDirectory interface {
	ResolveTrip(ctx context.Context, tripID int64) (*models.TripRoute, error)
}

// RouteInvalidator is implemented by directories that cache routes.
type RouteInvalidator interface {
	Invalidate(ctx context.Context, tripID int64) error
}

type BookingStore interface {
	GetByIdempotencyKey(ctx context.Context, key string) (*repository.IdempotencyRecord, error)
	Create(ctx context.Context, booking *models.Booking, response []byte) error
	GetByPNR(ctx context.Context, pnr string) (*models.Booking, error)
}

type Publisher interface {
	Publish(subject string, data any) error
}
