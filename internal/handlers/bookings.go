package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"setrag/internal/middleware"
	"setrag/internal/models"
	"setrag/internal/service"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type BookingHandlers struct {
	bookings *service.BookingService
	db       HealthChecker
}

func NewBookingHandlers(bookings *service.BookingService, db HealthChecker) *BookingHandlers {
	return &BookingHandlers{bookings: bookings, db: db}
}

// Health - GET /health
func (h *BookingHandlers) Health(c *gin.Context) {
	health(c, "booking", h.db)
}

// Quote - POST /api/price/quote
func (h *BookingHandlers) Quote(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	quote, err := h.bookings.Quote(c.Request.Context(), req.TripID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Book - POST /api/booking
// 201 on first creation; replays return 200 with the stored body.
func (h *BookingHandlers) Book(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	key := req.IdempotencyKey
	if header := c.GetHeader(IdempotencyKeyHeader); header != "" {
		if key != "" && key != header {
			badRequest(c, "idempotency key in header and body differ")
			return
		}
		key = header
	}

	principal, _ := middleware.PrincipalFromContext(c.Request.Context())

	outcome, err := h.bookings.Book(c.Request.Context(), service.BookCommand{
		TripID:         req.TripID,
		Passengers:     req.Passengers,
		IdempotencyKey: key,
		Principal:      principal,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if outcome.Replayed {
		status = http.StatusOK
	}
	c.Data(status, "application/json; charset=utf-8", outcome.Response)
}

// GetBooking - GET /api/bookings/:pnr
func (h *BookingHandlers) GetBooking(c *gin.Context) {
	booking, err := h.bookings.GetByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
