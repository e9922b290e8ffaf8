package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "setrag/internal/errors"
	"setrag/internal/logger"
	"setrag/internal/models"
	"setrag/internal/search"
)

const maxIndexPageSize = 500

// BookingIndex is satisfied by *search.ElasticsearchClient
type BookingIndex interface {
	GetByPNR(ctx context.Context, pnr string) (*search.BookingDocument, error)
	SearchByTrip(ctx context.Context, tripID int64, status string, size int) ([]search.BookingDocument, error)
	HealthCheck(ctx context.Context) error
}

// IndexHandlers serve the consumers' read side of the bookings index.
type IndexHandlers struct {
	index BookingIndex
}

func NewIndexHandlers(index BookingIndex) *IndexHandlers {
	return &IndexHandlers{index: index}
}

// Health - GET /health
func (h *IndexHandlers) Health(c *gin.Context) {
	resp := models.HealthResponse{Status: "healthy", Service: "consumers"}
	if err := h.index.HealthCheck(c.Request.Context()); err != nil {
		logger.WithContext(c.Request.Context()).Error("Search index health check failed", "error", err)
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBooking - GET /api/index/bookings/:pnr
func (h *IndexHandlers) GetBooking(c *gin.Context) {
	doc, err := h.index.GetByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	if doc == nil {
		respondError(c, apperrors.ErrBookingNotFound)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// TripBookings - GET /api/index/trips/:trip_id/bookings?status=&size=
// Lists what the index holds for a trip, including seats awaiting reconciliation.
func (h *IndexHandlers) TripBookings(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxIndexPageSize {
			badRequest(c, "size must be between 1 and 500")
			return
		}
		size = n
	}

	docs, err := h.index.SearchByTrip(c.Request.Context(), tripID, c.Query("status"), size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "count": len(docs), "bookings": docs})
}
