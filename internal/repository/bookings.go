package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"setrag/internal/database"
	apperrors "setrag/internal/errors"
	"setrag/internal/models"
)

const uniqueViolation = "23505"

const bookingColumns = `id, pnr, trip_id, seat_no, amount, currency, status, idempotency_key, principal, created_at`

// IdempotencyRecord is the committed outcome stored under an idempotency key
type IdempotencyRecord struct {
	Key       string
	BookingID int64
	PNR       string
	Response  []byte
}

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts the booking and, when it carries a key, its idempotency record
// in one transaction.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking, response []byte) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO bookings (pnr, trip_id, seat_no, amount, currency, status, idempotency_key, principal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at`

		err := tx.QueryRowContext(ctx, query,
			booking.PNR,
			booking.TripID,
			booking.SeatNo,
			booking.Amount,
			booking.Currency,
			booking.Status,
			booking.IdempotencyKey,
			booking.Principal,
		).Scan(&booking.ID, &booking.CreatedAt)
		if err != nil {
			return err
		}

		if booking.IdempotencyKey == nil {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO idempotency_keys (key, booking_id, pnr, response)
			VALUES ($1, $2, $3, $4)`,
			*booking.IdempotencyKey, booking.ID, booking.PNR, string(response))
		return err
	})

	return classifyBookingError(err)
}

func classifyBookingError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "bookings_idempotency_key_key", "idempotency_keys_pkey":
			return apperrors.ErrIdempotencyConflict
		case "bookings_pnr_key":
			return apperrors.ErrPNRCollision
		}
	}
	return fmt.Errorf("failed to persist booking: %w", err)
}

// GetByIdempotencyKey returns nil, nil when the key has not been committed.
func (r *BookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*IdempotencyRecord, error) {
	rec := &IdempotencyRecord{Key: key}
	var response string

	err := r.db.QueryRowContext(ctx,
		`SELECT booking_id, pnr, response FROM idempotency_keys WHERE key = $1`, key,
	).Scan(&rec.BookingID, &rec.PNR, &response)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	rec.Response = []byte(response)
	return rec, nil
}

func (r *BookingRepository) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	b := &models.Booking{}
	err := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE pnr = $1`, pnr).Scan(
		&b.ID,
		&b.PNR,
		&b.TripID,
		&b.SeatNo,
		&b.Amount,
		&b.Currency,
		&b.Status,
		&b.IdempotencyKey,
		&b.Principal,
		&b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}
