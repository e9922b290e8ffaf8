package errors

import (
	"context"
	"errors"
	"net/http"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// Seat ledger
var (
	ErrNoSeatsAvailable   = errors.New("no seats available")
	ErrSeatNotFound       = errors.New("seat not found")
	ErrTripNotFound       = errors.New("trip not found")
	ErrSeatNotConfirmable = errors.New("seat not confirmable")
)

// Booking saga
var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrIdempotencyConflict    = errors.New("idempotency key already committed")
	ErrPNRCollision           = errors.New("pnr already exists")
	ErrReconciliationRequired = errors.New("seat sold but booking not persisted, manual reconciliation required")
)

var (
	ErrDownstreamUnavailable = errors.New("downstream service unavailable")
	ErrValidation            = errors.New("validation error")
)

// Codes travel on the wire so that a remote caller can rebuild the sentinel.
const (
	CodeNoSeatsAvailable      = "NO_SEATS_AVAILABLE"
	CodeSeatNotFound          = "SEAT_NOT_FOUND"
	CodeTripNotFound          = "TRIP_NOT_FOUND"
	CodeSeatNotConfirmable    = "SEAT_NOT_CONFIRMABLE"
	CodeBookingNotFound       = "BOOKING_NOT_FOUND"
	CodeDownstreamUnavailable = "DOWNSTREAM_UNAVAILABLE"
	CodeDownstreamTimeout     = "DOWNSTREAM_TIMEOUT"
	CodeValidation            = "VALIDATION_ERROR"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeReconciliation        = "RECONCILIATION_REQUIRED"
	CodeInternal              = "INTERNAL_ERROR"
)

var codes = []struct {
	err    error
	code   string
	status int
}{
	{ErrNoSeatsAvailable, CodeNoSeatsAvailable, http.StatusConflict},
	{ErrSeatNotConfirmable, CodeSeatNotConfirmable, http.StatusConflict},
	{ErrSeatNotFound, CodeSeatNotFound, http.StatusNotFound},
	{ErrTripNotFound, CodeTripNotFound, http.StatusNotFound},
	{ErrBookingNotFound, CodeBookingNotFound, http.StatusNotFound},
	{ErrValidation, CodeValidation, http.StatusBadRequest},
	{ErrUnauthorized, CodeUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, CodeForbidden, http.StatusForbidden},
	{ErrReconciliationRequired, CodeReconciliation, http.StatusInternalServerError},
}

// Code returns the wire code for err.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	if errors.Is(err, ErrDownstreamUnavailable) {
		if errors.Is(err, context.DeadlineExceeded) {
			return CodeDownstreamTimeout
		}
		return CodeDownstreamUnavailable
	}
	return CodeInternal
}

// HTTPStatus maps err onto the status code surfaced to clients.
func HTTPStatus(err error) int {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.status
		}
	}
	if errors.Is(err, ErrDownstreamUnavailable) {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// FromCode is the inverse of Code. Unknown codes yield nil.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	switch code {
	case CodeDownstreamUnavailable, CodeDownstreamTimeout:
		return ErrDownstreamUnavailable
	}
	return nil
}

// Retryable reports whether the client may retry the same request later.
func Retryable(err error) bool {
	return errors.Is(err, ErrNoSeatsAvailable) || errors.Is(err, ErrDownstreamUnavailable)
}
