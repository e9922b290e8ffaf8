package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"setrag/internal/search"
)

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) GetByPNR(ctx context.Context, pnr string) (*search.BookingDocument, error) {
	args := m.Called(ctx, pnr)
	doc, _ := args.Get(0).(*search.BookingDocument)
	return doc, args.Error(1)
}

func (m *mockIndex) SearchByTrip(ctx context.Context, tripID int64, status string, size int) ([]search.BookingDocument, error) {
	args := m.Called(ctx, tripID, status, size)
	docs, _ := args.Get(0).([]search.BookingDocument)
	return docs, args.Error(1)
}

func (m *mockIndex) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setupIndexRouter(index BookingIndex) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewIndexHandlers(index)

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/api/index/bookings/:pnr", h.GetBooking)
	r.GET("/api/index/trips/:trip_id/bookings", h.TripBookings)
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndexHealth(t *testing.T) {
	index := new(mockIndex)
	index.On("HealthCheck", mock.Anything).Return(nil).Once()
	index.On("HealthCheck", mock.Anything).Return(errors.New("health check error: [503]")).Once()
	r := setupIndexRouter(index)

	assert.Equal(t, http.StatusOK, serve(r, "/health").Code)

	w := serve(r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unhealthy"`)
}

func TestIndexGetBooking(t *testing.T) {
	index := new(mockIndex)
	index.On("GetByPNR", mock.Anything, "ABC").Return(&search.BookingDocument{PNR: "ABC", TripID: 2, SeatNo: "5C"}, nil)
	index.On("GetByPNR", mock.Anything, "NOPE").Return(nil, nil)
	r := setupIndexRouter(index)

	w := serve(r, "/api/index/bookings/ABC")
	require.Equal(t, http.StatusOK, w.Code)
	var doc search.BookingDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "5C", doc.SeatNo)

	w = serve(r, "/api/index/bookings/NOPE")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BOOKING_NOT_FOUND", decodeError(t, w).Code)
}

func TestIndexTripBookings(t *testing.T) {
	index := new(mockIndex)
	index.On("SearchByTrip", mock.Anything, int64(7), search.StatusReconciliationRequired, 0).
		Return([]search.BookingDocument{{TripID: 7, SeatNo: "1A", Status: search.StatusReconciliationRequired}}, nil)
	index.On("SearchByTrip", mock.Anything, int64(8), "", 20).Return(nil, errors.New("search error: [500]"))
	r := setupIndexRouter(index)

	w := serve(r, "/api/index/trips/7/bookings?status="+search.StatusReconciliationRequired)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count    int                      `json:"count"`
		Bookings []search.BookingDocument `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "1A", resp.Bookings[0].SeatNo)

	w = serve(r, "/api/index/trips/8/bookings?size=20")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeError(t, w).Error)

	assert.Equal(t, http.StatusBadRequest, serve(r, "/api/index/trips/7/bookings?size=0").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "/api/index/trips/x/bookings").Code)
	index.AssertExpectations(t)
}
