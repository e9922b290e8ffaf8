package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "setrag/internal/errors"
	"setrag/internal/logger"
	"setrag/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAllocateSendsHoldMinutes(t *testing.T) {
	expiry := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/trips/3/seats/allocate", r.URL.Path)
		assert.Equal(t, "21", r.URL.Query().Get("hold_minutes"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, models.Seat{TripID: 3, Position: 1, SeatNo: "1A", Status: models.SeatHeld, HoldExpiresAt: &expiry})
	}))
	defer srv.Close()

	client := NewInventoryClient(InventoryConfig{BaseURL: srv.URL})
	ctx := logger.ContextWithRequestID(context.Background(), "req-1")

	seat, err := client.Allocate(ctx, 3, 20*time.Minute+time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1A", seat.SeatNo)
	assert.Equal(t, models.SeatHeld, seat.Status)
	assert.True(t, expiry.Equal(*seat.HoldExpiresAt))
}

func TestErrorCodesMapToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"no seats", http.StatusConflict, apperrors.CodeNoSeatsAvailable, apperrors.ErrNoSeatsAvailable},
		{"not confirmable", http.StatusConflict, apperrors.CodeSeatNotConfirmable, apperrors.ErrSeatNotConfirmable},
		{"seat missing", http.StatusNotFound, apperrors.CodeSeatNotFound, apperrors.ErrSeatNotFound},
		{"trip missing", http.StatusNotFound, apperrors.CodeTripNotFound, apperrors.ErrTripNotFound},
		{"server error", http.StatusInternalServerError, apperrors.CodeInternal, apperrors.ErrDownstreamUnavailable},
		{"bad gateway", http.StatusBadGateway, "", apperrors.ErrDownstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, models.ErrorResponse{Error: tt.name, Code: tt.code})
			}))
			defer srv.Close()

			client := NewInventoryClient(InventoryConfig{BaseURL: srv.URL})
			_, err := client.Confirm(context.Background(), 1, "1A")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnreachableInventoryIsDownstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewInventoryClient(InventoryConfig{BaseURL: url})
	_, err := client.ResolveTrip(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrDownstreamUnavailable)
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func TestSlowInventoryTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	client := NewInventoryClient(InventoryConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.ResolveTrip(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrDownstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, apperrors.HTTPStatus(err))
}

func TestSeedAndResolve(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trips/4/seats/seed", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		writeJSON(w, http.StatusCreated, []models.Seat{
			{TripID: 4, Position: 1, SeatNo: "1A", Status: models.SeatAvailable},
			{TripID: 4, Position: 2, SeatNo: "2A", Status: models.SeatAvailable},
		})
	})
	mux.HandleFunc("/api/trips/4/route", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.TripRoute{TripID: 4, Origin: "Libreville", Destination: "Moanda"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewInventoryClient(InventoryConfig{BaseURL: srv.URL})

	seats, created, err := client.Seed(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, seats, 2)

	route, err := client.ResolveTrip(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Moanda", route.Destination)
}
