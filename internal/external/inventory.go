package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "setrag/internal/errors"
	"setrag/internal/logger"
	"setrag/internal/models"
)

// InventoryClient talks to the inventory service over HTTP and maps its error
// codes back onto the shared sentinels.
type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

type InventoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewInventoryClient(cfg InventoryConfig) *InventoryClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &InventoryClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (ic *InventoryClient) Seed(ctx context.Context, tripID int64, count int) ([]models.Seat, bool, error) {
	path := fmt.Sprintf("/api/trips/%d/seats/seed?count=%d", tripID, count)

	var seats []models.Seat
	status, err := ic.do(ctx, http.MethodPost, path, &seats)
	if err != nil {
		return nil, false, err
	}
	return seats, status == http.StatusCreated, nil
}

func (ic *InventoryClient) Allocate(ctx context.Context, tripID int64, hold time.Duration) (*models.Seat, error) {
	path := fmt.Sprintf("/api/trips/%d/seats/allocate", tripID)
	if hold > 0 {
		path += "?hold_minutes=" + strconv.Itoa(int(math.Ceil(hold.Minutes())))
	}

	var seat models.Seat
	if _, err := ic.do(ctx, http.MethodPost, path, &seat); err != nil {
		return nil, err
	}
	return &seat, nil
}

func (ic *InventoryClient) Confirm(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error) {
	path := fmt.Sprintf("/api/trips/%d/seats/%s/confirm", tripID, url.PathEscape(seatNo))

	var seat models.Seat
	if _, err := ic.do(ctx, http.MethodPost, path, &seat); err != nil {
		return nil, err
	}
	return &seat, nil
}

func (ic *InventoryClient) Release(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error) {
	path := fmt.Sprintf("/api/trips/%d/seats/%s/release", tripID, url.PathEscape(seatNo))

	var seat models.Seat
	if _, err := ic.do(ctx, http.MethodPost, path, &seat); err != nil {
		return nil, err
	}
	return &seat, nil
}

func (ic *InventoryClient) ListSeats(ctx context.Context, tripID int64) ([]models.Seat, error) {
	var seats []models.Seat
	if _, err := ic.do(ctx, http.MethodGet, fmt.Sprintf("/api/trips/%d/seats", tripID), &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (ic *InventoryClient) ResolveTrip(ctx context.Context, tripID int64) (*models.TripRoute, error) {
	var route models.TripRoute
	if _, err := ic.do(ctx, http.MethodGet, fmt.Sprintf("/api/trips/%d/route", tripID), &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// do returns the response status on success.
func (ic *InventoryClient) do(ctx context.Context, method, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, ic.baseURL+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := ic.httpClient.Do(req)
	if err != nil {
		logger.WithContext(ctx).Warn("Inventory request failed", "method", method, "path", path, "error", err)
		return 0, transportError(method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, transportError(method, path, err)
	}

	logger.WithContext(ctx).Debug("Inventory request",
		"method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, statusError(method, path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("inventory %s %s: %w: failed to decode response: %v", method, path, apperrors.ErrDownstreamUnavailable, err)
	}
	return resp.StatusCode, nil
}

func transportError(method, path string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("inventory %s %s: %w: %w: %v", method, path, apperrors.ErrDownstreamUnavailable, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("inventory %s %s: %w: %w", method, path, apperrors.ErrDownstreamUnavailable, err)
}

func statusError(method, path string, status int, body []byte) error {
	var payload models.ErrorResponse
	_ = json.Unmarshal(body, &payload)

	if status >= http.StatusInternalServerError {
		return fmt.Errorf("inventory %s %s: %w: status %d: %s", method, path, apperrors.ErrDownstreamUnavailable, status, payload.Error)
	}
	if sentinel := apperrors.FromCode(payload.Code); sentinel != nil {
		return fmt.Errorf("inventory %s %s: %w", method, path, sentinel)
	}
	return fmt.Errorf("inventory %s %s: unexpected status %d: %s", method, path, status, payload.Error)
}
