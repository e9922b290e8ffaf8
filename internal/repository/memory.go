package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "setrag/internal/errors"
	"setrag/internal/models"
)

type memoryTrip struct {
	mu    sync.Mutex
	route models.TripRoute
	seats []models.Seat
}

// MemoryStore keeps trips and seats in process. Every seat operation locks only
// its own trip.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	trips  map[int64]*memoryTrip
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trips: make(map[int64]*memoryTrip)}
}

// AddTrip registers a trip between two stations and returns its id.
func (s *MemoryStore) AddTrip(origin, destination string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.trips[id] = &memoryTrip{route: models.TripRoute{TripID: id, Origin: origin, Destination: destination}}
	return id
}

func (s *MemoryStore) trip(tripID int64) (*memoryTrip, error) {
	s.mu.RLock()
	t, ok := s.trips[tripID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrTripNotFound
	}
	return t, nil
}

func (s *MemoryStore) GetRoute(_ context.Context, tripID int64) (*models.TripRoute, error) {
	t, err := s.trip(tripID)
	if err != nil {
		return nil, err
	}
	route := t.route
	return &route, nil
}

func (s *MemoryStore) Seed(_ context.Context, tripID int64, count int) ([]models.Seat, bool, error) {
	t, err := s.trip(tripID)
	if err != nil {
		return nil, false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.seats) > 0 {
		return cloneSeats(t.seats), false, nil
	}

	t.seats = make([]models.Seat, count)
	for i := range t.seats {
		t.seats[i] = models.Seat{
			TripID:   tripID,
			Position: i + 1,
			SeatNo:   models.SeatNumber(i + 1),
			Status:   models.SeatAvailable,
		}
	}
	return cloneSeats(t.seats), true, nil
}

func (s *MemoryStore) Allocate(_ context.Context, tripID int64, now, holdUntil time.Time) (*models.Seat, error) {
	t, err := s.trip(tripID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// seats are kept in position order
	for i := range t.seats {
		if !t.seats[i].Allocatable(now) {
			continue
		}
		expiry := holdUntil.UTC()
		t.seats[i].Status = models.SeatHeld
		t.seats[i].HoldExpiresAt = &expiry
		seat := t.seats[i]
		return &seat, nil
	}
	return nil, apperrors.ErrNoSeatsAvailable
}

func (s *MemoryStore) Confirm(_ context.Context, tripID int64, seatNo string, _ time.Time) (*models.Seat, error) {
	return s.update(tripID, seatNo, func(seat *models.Seat) error {
		if seat.Status == models.SeatSold {
			return apperrors.ErrSeatNotConfirmable
		}
		seat.Status = models.SeatSold
		seat.HoldExpiresAt = nil
		return nil
	})
}

func (s *MemoryStore) Release(_ context.Context, tripID int64, seatNo string, _ time.Time) (*models.Seat, error) {
	return s.update(tripID, seatNo, func(seat *models.Seat) error {
		switch seat.Status {
		case models.SeatSold:
			return apperrors.ErrSeatNotConfirmable
		case models.SeatHeld:
			seat.Status = models.SeatAvailable
			seat.HoldExpiresAt = nil
		}
		return nil
	})
}

func (s *MemoryStore) update(tripID int64, seatNo string, fn func(*models.Seat) error) (*models.Seat, error) {
	t, err := s.trip(tripID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.seats {
		if t.seats[i].SeatNo != seatNo {
			continue
		}
		if err := fn(&t.seats[i]); err != nil {
			return nil, err
		}
		seat := t.seats[i]
		return &seat, nil
	}
	return nil, apperrors.ErrSeatNotFound
}

func (s *MemoryStore) List(_ context.Context, tripID int64) ([]models.Seat, error) {
	t, err := s.trip(tripID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneSeats(t.seats), nil
}

func (s *MemoryStore) Occupancy(_ context.Context, now time.Time) ([]models.TripOccupancy, error) {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.trips))
	for id := range s.trips {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []models.TripOccupancy
	for _, id := range ids {
		t, _ := s.trip(id)
		t.mu.Lock()
		if len(t.seats) > 0 {
			occ := models.TripOccupancy{TripID: id}
			for _, seat := range t.seats {
				occ.Add(seat, now)
			}
			result = append(result, occ)
		}
		t.mu.Unlock()
	}
	return result, nil
}

func cloneSeats(seats []models.Seat) []models.Seat {
	out := make([]models.Seat, len(seats))
	for i, seat := range seats {
		if seat.HoldExpiresAt != nil {
			expiry := *seat.HoldExpiresAt
			seat.HoldExpiresAt = &expiry
		}
		out[i] = seat
	}
	return out
}

// MemoryBookingStore is the in-process counterpart of BookingRepository.
// The key and PNR uniqueness checks and both inserts happen under one lock.
type MemoryBookingStore struct {
	mu     sync.Mutex
	nextID int64
	byPNR  map[string]*models.Booking
	byKey  map[string]*IdempotencyRecord
}

func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{
		byPNR: make(map[string]*models.Booking),
		byKey: make(map[string]*IdempotencyRecord),
	}
}

func (s *MemoryBookingStore) Create(_ context.Context, booking *models.Booking, response []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.IdempotencyKey != nil {
		if _, ok := s.byKey[*booking.IdempotencyKey]; ok {
			return apperrors.ErrIdempotencyConflict
		}
	}
	if _, ok := s.byPNR[booking.PNR]; ok {
		return apperrors.ErrPNRCollision
	}

	s.nextID++
	booking.ID = s.nextID
	booking.CreatedAt = time.Now().UTC()

	stored := *booking
	s.byPNR[booking.PNR] = &stored
	if booking.IdempotencyKey != nil {
		s.byKey[*booking.IdempotencyKey] = &IdempotencyRecord{
			Key:       *booking.IdempotencyKey,
			BookingID: booking.ID,
			PNR:       booking.PNR,
			Response:  append([]byte(nil), response...),
		}
	}
	return nil
}

func (s *MemoryBookingStore) GetByIdempotencyKey(_ context.Context, key string) (*IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	out := *rec
	out.Response = append([]byte(nil), rec.Response...)
	return &out, nil
}

func (s *MemoryBookingStore) GetByPNR(_ context.Context, pnr string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byPNR[pnr]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

// Count returns the number of stored bookings.
func (s *MemoryBookingStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byPNR)
}
