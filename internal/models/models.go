package models

// QuoteRequest is the body of POST /api/price/quote
type QuoteRequest struct {
	TripID int64 `json:"trip_id" binding:"required,gt=0"`
}

// BookRequest is the body of POST /api/booking
type BookRequest struct {
	TripID         int64  `json:"trip_id" binding:"required,gt=0"`
	Passengers     int    `json:"passengers"`
	IdempotencyKey string `json:"idempotency_key" binding:"max=255"`
}

// ErrorResponse is the JSON error body of both services
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database any    `json:"database,omitempty"`
}
