package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HELD"
	SeatSold      SeatStatus = "SOLD"
)

// Station is a stop on the SETRAG network
type Station struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Trip is one scheduled departure between two stations
type Trip struct {
	ID                   int64     `json:"id" db:"id"`
	OriginStationID      int64     `json:"origin_station_id" db:"origin_station_id"`
	DestinationStationID int64     `json:"destination_station_id" db:"destination_station_id"`
	DepartureTime        time.Time `json:"departure_time" db:"departure_time"`
}

// TripRoute is the resolved station names of a trip
type TripRoute struct {
	TripID      int64  `json:"trip_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Seat is one seat of a trip. Status is the stored status; use Effective for reads.
type Seat struct {
	TripID        int64      `json:"trip_id" db:"trip_id"`
	Position      int        `json:"position" db:"position"`
	SeatNo        string     `json:"seat_no" db:"seat_no"`
	Status        SeatStatus `json:"status" db:"status"`
	HoldExpiresAt *time.Time `json:"hold_expiry,omitempty" db:"hold_expires_at"`
}

// SeatNumber builds the human readable number for a 1-based position.
func SeatNumber(position int) string {
	return fmt.Sprintf("%dA", position)
}

// HoldExpired reports whether a HELD seat's hold has lapsed at now.
func (s Seat) HoldExpired(now time.Time) bool {
	return s.Status == SeatHeld && (s.HoldExpiresAt == nil || !now.Before(*s.HoldExpiresAt))
}

// EffectiveStatus reads an expired hold as AVAILABLE.
func (s Seat) EffectiveStatus(now time.Time) SeatStatus {
	if s.HoldExpired(now) {
		return SeatAvailable
	}
	return s.Status
}

// Allocatable reports whether allocate may pick this seat.
func (s Seat) Allocatable(now time.Time) bool {
	return s.EffectiveStatus(now) == SeatAvailable
}

// Effective returns a copy with expired holds reinterpreted as AVAILABLE.
func (s Seat) Effective(now time.Time) Seat {
	if s.HoldExpired(now) {
		s.Status = SeatAvailable
		s.HoldExpiresAt = nil
	}
	return s
}

// TripOccupancy holds effective seat counts for one trip
type TripOccupancy struct {
	TripID    int64 `json:"trip_id"`
	Available int   `json:"available"`
	Held      int   `json:"held"`
	Sold      int   `json:"sold"`
}

// Add counts a seat's effective status at now.
func (o *TripOccupancy) Add(s Seat, now time.Time) {
	switch s.EffectiveStatus(now) {
	case SeatAvailable:
		o.Available++
	case SeatHeld:
		o.Held++
	case SeatSold:
		o.Sold++
	}
}

// PriceQuote is computed per request and never persisted
type PriceQuote struct {
	BasePrice  decimal.Decimal `json:"base_price"`
	Commission decimal.Decimal `json:"commission"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Currency   string          `json:"currency"`
}

const BookingConfirmed = "CONFIRMED"

// Booking is the durable outcome of a completed saga
type Booking struct {
	ID             int64           `json:"id" db:"id"`
	PNR            string          `json:"pnr" db:"pnr"`
	TripID         int64           `json:"trip_id" db:"trip_id"`
	SeatNo         string          `json:"seat_no" db:"seat_no"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Currency       string          `json:"currency" db:"currency"`
	Status         string          `json:"status" db:"status"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty" db:"idempotency_key"`
	Principal      *string         `json:"-" db:"principal"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Result is the outcome surfaced to the caller of book.
func (b *Booking) Result() BookingResult {
	return BookingResult{PNR: b.PNR, Amount: b.Amount, Currency: b.Currency}
}

// BookingResult is what book returns, and what replays return verbatim
type BookingResult struct {
	PNR      string          `json:"pnr"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}
