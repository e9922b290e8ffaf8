package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"setrag/internal/service"
)

type InventoryHandlers struct {
	ledger *service.LedgerService
	db     HealthChecker
}

func NewInventoryHandlers(ledger *service.LedgerService, db HealthChecker) *InventoryHandlers {
	return &InventoryHandlers{ledger: ledger, db: db}
}

// Health - GET /health
func (h *InventoryHandlers) Health(c *gin.Context) {
	health(c, "inventory", h.db)
}

// SeedSeats - POST /api/trips/:trip_id/seats/seed?count=N
// 201 when seats were created, 200 when the trip was already seeded.
func (h *InventoryHandlers) SeedSeats(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}
	count, ok := queryInt(c, "count", service.DefaultSeedCount, 1, service.MaxSeedCount)
	if !ok {
		return
	}

	seats, created, err := h.ledger.Seed(c.Request.Context(), tripID, count)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, seats)
}

// ListSeats - GET /api/trips/:trip_id/seats
func (h *InventoryHandlers) ListSeats(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	seats, err := h.ledger.List(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

// AllocateSeat - POST /api/trips/:trip_id/seats/allocate?hold_minutes=M
func (h *InventoryHandlers) AllocateSeat(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}
	minutes, ok := queryInt(c, "hold_minutes", 0, 1, int(service.MaxHold/time.Minute))
	if !ok {
		return
	}

	seat, err := h.ledger.Allocate(c.Request.Context(), tripID, time.Duration(minutes)*time.Minute)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// ConfirmSeat - POST /api/trips/:trip_id/seats/:seat_no/confirm
func (h *InventoryHandlers) ConfirmSeat(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	seat, err := h.ledger.Confirm(c.Request.Context(), tripID, c.Param("seat_no"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// ReleaseSeat - POST /api/trips/:trip_id/seats/:seat_no/release
func (h *InventoryHandlers) ReleaseSeat(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	seat, err := h.ledger.Release(c.Request.Context(), tripID, c.Param("seat_no"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// TripRoute - GET /api/trips/:trip_id/route
func (h *InventoryHandlers) TripRoute(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	route, err := h.ledger.ResolveTrip(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}
