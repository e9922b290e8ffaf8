// Package validation smoke-checks a running inventory + booking deployment
// end to end: seed, quote, book, replay, lookup.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"setrag/internal/config"
	"setrag/internal/external"
	"setrag/internal/logger"
	"setrag/internal/models"
)

// SmokeValidator drives both services through their public HTTP APIs
type SmokeValidator struct {
	inventory  *external.InventoryClient
	bookingURL string
	token      string
	tripID     int64
	httpClient *http.Client
}

func NewSmokeValidator(inventory *external.InventoryClient, bookingURL, token string, tripID int64) *SmokeValidator {
	return &SmokeValidator{
		inventory:  inventory,
		bookingURL: bookingURL,
		token:      token,
		tripID:     tripID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Run builds a validator from cfg and the VALIDATE_* variables
func Run(ctx context.Context, cfg *config.Config) error {
	tripID, err := strconv.ParseInt(getEnv("VALIDATE_TRIP_ID", "1"), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid VALIDATE_TRIP_ID: %w", err)
	}

	token := ""
	if cfg.JWTSecret != "" {
		token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "smoke-validator",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		}).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			return fmt.Errorf("failed to sign validator token: %w", err)
		}
	}

	v := NewSmokeValidator(
		external.NewInventoryClient(cfg.Inventory),
		getEnv("BOOKING_BASE_URL", "http://localhost:"+cfg.BookingPort),
		token,
		tripID,
	)
	return v.ValidateAll(ctx)
}

func (v *SmokeValidator) ValidateAll(ctx context.Context) error {
	log := logger.WithFields("trip_id", v.tripID)
	log.Info("Starting smoke validation")

	seats, created, err := v.inventory.Seed(ctx, v.tripID, 10)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(seats) == 0 {
		return fmt.Errorf("seed: trip %d has no seats", v.tripID)
	}
	log.Info("Seats ready", "count", len(seats), "created", created)

	if _, err := v.inventory.ResolveTrip(ctx, v.tripID); err != nil {
		return fmt.Errorf("route: %w", err)
	}

	var quote models.PriceQuote
	if _, err := v.post(ctx, "/api/price/quote", models.QuoteRequest{TripID: v.tripID}, "", http.StatusOK, &quote); err != nil {
		return err
	}
	if !quote.BasePrice.Add(quote.Commission).Equal(quote.TotalPrice) {
		return fmt.Errorf("quote: total %s is not base %s + commission %s", quote.TotalPrice, quote.BasePrice, quote.Commission)
	}

	key := "smoke-" + uuid.NewString()
	req := models.BookRequest{TripID: v.tripID, Passengers: 1, IdempotencyKey: key}

	var result models.BookingResult
	first, err := v.post(ctx, "/api/booking", req, key, http.StatusCreated, &result)
	if err != nil {
		return err
	}
	if !result.Amount.Equal(quote.TotalPrice) {
		return fmt.Errorf("booking: amount %s differs from quote %s", result.Amount, quote.TotalPrice)
	}

	replay, err := v.post(ctx, "/api/booking", req, key, http.StatusOK, nil)
	if err != nil {
		return err
	}
	if !bytes.Equal(first, replay) {
		return fmt.Errorf("booking: replay body differs from the original response")
	}

	var booking models.Booking
	if _, err := v.request(ctx, http.MethodGet, "/api/bookings/"+result.PNR, nil, "", http.StatusOK, &booking); err != nil {
		return err
	}
	if booking.PNR != result.PNR || booking.Status != models.BookingConfirmed {
		return fmt.Errorf("booking lookup: got %s/%s", booking.PNR, booking.Status)
	}

	seats, err = v.inventory.ListSeats(ctx, v.tripID)
	if err != nil {
		return fmt.Errorf("list seats: %w", err)
	}
	for _, s := range seats {
		if s.SeatNo == booking.SeatNo && s.Status != models.SeatSold {
			return fmt.Errorf("seat %s of booking %s is %s, want SOLD", s.SeatNo, booking.PNR, s.Status)
		}
	}

	log.Info("Smoke validation passed", "pnr", result.PNR, "seat_no", booking.SeatNo)
	return nil
}

func (v *SmokeValidator) post(ctx context.Context, path string, body any, key string, want int, out any) ([]byte, error) {
	return v.request(ctx, http.MethodPost, path, body, key, want, out)
}

// request returns the raw body so callers can compare replays byte for byte.
func (v *SmokeValidator) request(ctx context.Context, method, path string, body any, key string, want int, out any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.bookingURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("%s %s: expected %d, got %d: %s", method, path, want, resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}
	return raw, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
