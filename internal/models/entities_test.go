package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		seat Seat
		want SeatStatus
	}{
		{"available", Seat{Status: SeatAvailable}, SeatAvailable},
		{"live hold", Seat{Status: SeatHeld, HoldExpiresAt: &future}, SeatHeld},
		{"expired hold", Seat{Status: SeatHeld, HoldExpiresAt: &past}, SeatAvailable},
		{"hold expiring now", Seat{Status: SeatHeld, HoldExpiresAt: &now}, SeatAvailable},
		{"sold", Seat{Status: SeatSold}, SeatSold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seat.EffectiveStatus(now))
			assert.Equal(t, tt.want == SeatAvailable, tt.seat.Allocatable(now))
		})
	}
}

func TestSeatEffectiveClearsExpiredHold(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	s := Seat{TripID: 1, Position: 1, SeatNo: "1A", Status: SeatHeld, HoldExpiresAt: &past}
	eff := s.Effective(now)

	assert.Equal(t, SeatAvailable, eff.Status)
	assert.Nil(t, eff.HoldExpiresAt)
	assert.Equal(t, SeatHeld, s.Status)
}

func TestSeatNumber(t *testing.T) {
	assert.Equal(t, "1A", SeatNumber(1))
	assert.Equal(t, "10A", SeatNumber(10))
}

func TestBookingResultJSON(t *testing.T) {
	b := Booking{PNR: "ABC", Amount: decimal.NewFromInt(5250), Currency: "XAF"}

	raw, err := json.Marshal(b.Result())
	require.NoError(t, err)
	assert.JSONEq(t, `{"pnr":"ABC","amount":5250,"currency":"XAF"}`, string(raw))
}

func TestTripOccupancyAdd(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	var occ TripOccupancy
	occ.Add(Seat{Status: SeatAvailable}, now)
	occ.Add(Seat{Status: SeatHeld, HoldExpiresAt: &past}, now)
	occ.Add(Seat{Status: SeatHeld, HoldExpiresAt: &future}, now)
	occ.Add(Seat{Status: SeatSold}, now)

	assert.Equal(t, TripOccupancy{Available: 2, Held: 1, Sold: 1}, occ)
}
