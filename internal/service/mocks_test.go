package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"setrag/internal/models"
	"setrag/internal/repository"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(subject string, data any) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func newPublisher() *mockPublisher {
	p := new(mockPublisher)
	p.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return p
}

func (m *mockPublisher) subjects() []string {
	var out []string
	for _, c := range m.Calls {
		out = append(out, c.Arguments.String(0))
	}
	return out
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Allocate(ctx context.Context, tripID int64, hold time.Duration) (*models.Seat, error) {
	args := m.Called(ctx, tripID, hold)
	seat, _ := args.Get(0).(*models.Seat)
	return seat, args.Error(1)
}

func (m *mockLedger) Confirm(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error) {
	args := m.Called(ctx, tripID, seatNo)
	seat, _ := args.Get(0).(*models.Seat)
	return seat, args.Error(1)
}

func (m *mockLedger) Release(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error) {
	args := m.Called(ctx, tripID, seatNo)
	seat, _ := args.Get(0).(*models.Seat)
	return seat, args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ResolveTrip(ctx context.Context, tripID int64) (*models.TripRoute, error) {
	args := m.Called(ctx, tripID)
	route, _ := args.Get(0).(*models.TripRoute)
	return route, args.Error(1)
}

// mockCachingDirectory is a directory that also caches routes.
type mockCachingDirectory struct {
	mockDirectory
}

func (m *mockCachingDirectory) Invalidate(ctx context.Context, tripID int64) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) GetByIdempotencyKey(ctx context.Context, key string) (*repository.IdempotencyRecord, error) {
	args := m.Called(ctx, key)
	rec, _ := args.Get(0).(*repository.IdempotencyRecord)
	return rec, args.Error(1)
}

func (m *mockBookingStore) Create(ctx context.Context, booking *models.Booking, response []byte) error {
	args := m.Called(ctx, booking, response)
	return args.Error(0)
}

func (m *mockBookingStore) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	args := m.Called(ctx, pnr)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

// countingLedger wraps a real ledger and counts allocations.
type countingLedger struct {
	SeatLedger
	mu        sync.Mutex
	allocated []string
}

func (c *countingLedger) Allocate(ctx context.Context, tripID int64, hold time.Duration) (*models.Seat, error) {
	seat, err := c.SeatLedger.Allocate(ctx, tripID, hold)
	if err == nil {
		c.mu.Lock()
		c.allocated = append(c.allocated, seat.SeatNo)
		c.mu.Unlock()
	}
	return seat, err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
