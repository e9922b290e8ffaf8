package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "setrag/internal/errors"
	"setrag/internal/models"
)

func TestMemoryStoreSeedUnknownTrip(t *testing.T) {
	s := NewMemoryStore()
	_, _, err := s.Seed(context.Background(), 99, 3)
	assert.ErrorIs(t, err, apperrors.ErrTripNotFound)
}

func TestMemoryStoreAllocateSkipsLiveHolds(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	trip := s.AddTrip("Libreville", "Owendo")
	_, _, err := s.Seed(ctx, trip, 2)
	require.NoError(t, err)

	now := time.Now()
	first, err := s.Allocate(ctx, trip, now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "1A", first.SeatNo)

	second, err := s.Allocate(ctx, trip, now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "2A", second.SeatNo)

	// past the first hold only
	later := now.Add(2 * time.Minute)
	_, err = s.Confirm(ctx, trip, "2A", later)
	require.NoError(t, err)

	again, err := s.Allocate(ctx, trip, later, later.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "1A", again.SeatNo)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	trip := s.AddTrip("Libreville", "Moanda")
	seats, _, err := s.Seed(ctx, trip, 1)
	require.NoError(t, err)

	seats[0].Status = models.SeatSold

	listed, err := s.List(ctx, trip)
	require.NoError(t, err)
	assert.Equal(t, models.SeatAvailable, listed[0].Status)
}

func TestMemoryStoreOccupancy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := s.AddTrip("Libreville", "Franceville")
	s.AddTrip("Owendo", "Ndjolé")
	_, _, err := s.Seed(ctx, a, 3)
	require.NoError(t, err)

	now := time.Now()
	_, err = s.Allocate(ctx, a, now, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = s.Confirm(ctx, a, "3A", now)
	require.NoError(t, err)

	occ, err := s.Occupancy(ctx, now)
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, models.TripOccupancy{TripID: a, Available: 1, Held: 1, Sold: 1}, occ[0])
}

func TestMemoryBookingStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookingStore()
	key := "k1"

	first := &models.Booking{PNR: "P1", TripID: 1, SeatNo: "1A", Amount: decimal.NewFromInt(5250), Currency: "XAF", IdempotencyKey: &key}
	require.NoError(t, s.Create(ctx, first, []byte(`{"pnr":"P1"}`)))
	assert.NotZero(t, first.ID)

	dupKey := &models.Booking{PNR: "P2", TripID: 1, SeatNo: "2A", IdempotencyKey: &key}
	assert.ErrorIs(t, s.Create(ctx, dupKey, nil), apperrors.ErrIdempotencyConflict)

	dupPNR := &models.Booking{PNR: "P1", TripID: 1, SeatNo: "2A"}
	assert.ErrorIs(t, s.Create(ctx, dupPNR, nil), apperrors.ErrPNRCollision)

	rec, err := s.GetByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "P1", rec.PNR)
	assert.Equal(t, `{"pnr":"P1"}`, string(rec.Response))

	missing, err := s.GetByIdempotencyKey(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.GetByPNR(ctx, "P2")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
	assert.Equal(t, 1, s.Count())
}
