package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"setrag/internal/database"
	apperrors "setrag/internal/errors"
	"setrag/internal/models"
)

const seatColumns = `trip_id, position, seat_no, status, hold_expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeat(row rowScanner) (*models.Seat, error) {
	seat := &models.Seat{}
	err := row.Scan(&seat.TripID, &seat.Position, &seat.SeatNo, &seat.Status, &seat.HoldExpiresAt)
	if err != nil {
		return nil, err
	}
	if seat.HoldExpiresAt != nil {
		utc := seat.HoldExpiresAt.UTC()
		seat.HoldExpiresAt = &utc
	}
	return seat, nil
}

type SeatRepository struct {
	db *database.DB
}

func NewSeatRepository(db *database.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// Seed creates count AVAILABLE seats for a trip unless the trip already has seats.
// A per-trip advisory lock makes concurrent seeds of the same trip create seats once.
func (r *SeatRepository) Seed(ctx context.Context, tripID int64, count int) ([]models.Seat, bool, error) {
	var seats []models.Seat
	created := false

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, tripID); err != nil {
			return fmt.Errorf("failed to lock trip: %w", err)
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM trips WHERE id = $1)`, tripID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrTripNotFound
		}

		var existing int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE trip_id = $1`, tripID).Scan(&existing); err != nil {
			return err
		}

		if existing == 0 {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO seats (trip_id, position, seat_no, status)
				SELECT $1, g, g || 'A', 'AVAILABLE'
				FROM generate_series(1, $2::int) AS g`, tripID, count)
			if err != nil {
				return fmt.Errorf("failed to insert seats: %w", err)
			}
			created = true
		}

		rows, err := tx.QueryContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE trip_id = $1 ORDER BY position`, tripID)
		if err != nil {
			return err
		}
		seats, err = collectSeats(rows)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return seats, created, nil
}

// Allocate holds the lowest-positioned eligible seat until holdUntil.
// Rows locked by a concurrent allocate are skipped rather than waited on.
func (r *SeatRepository) Allocate(ctx context.Context, tripID int64, now, holdUntil time.Time) (*models.Seat, error) {
	query := `
		UPDATE seats SET status = 'HELD', hold_expires_at = $3, updated_at = NOW()
		WHERE id = (
			SELECT id FROM seats
			WHERE trip_id = $1
			  AND (status = 'AVAILABLE'
			       OR (status = 'HELD' AND (hold_expires_at IS NULL OR hold_expires_at <= $2)))
			ORDER BY position
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + seatColumns

	seat, err := scanSeat(r.db.QueryRowContext(ctx, query, tripID, now.UTC(), holdUntil.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		if err := r.requireTrip(ctx, tripID); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrNoSeatsAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to allocate seat: %w", err)
	}
	return seat, nil
}

// Confirm sells a seat that is not already SOLD.
func (r *SeatRepository) Confirm(ctx context.Context, tripID int64, seatNo string, _ time.Time) (*models.Seat, error) {
	query := `
		UPDATE seats SET status = 'SOLD', hold_expires_at = NULL, updated_at = NOW()
		WHERE trip_id = $1 AND seat_no = $2 AND status <> 'SOLD'
		RETURNING ` + seatColumns

	seat, err := scanSeat(r.db.QueryRowContext(ctx, query, tripID, seatNo))
	if errors.Is(err, sql.ErrNoRows) {
		current, err := r.get(ctx, tripID, seatNo)
		if err != nil {
			return nil, err
		}
		return nil, confirmConflict(current)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to confirm seat: %w", err)
	}
	return seat, nil
}

// confirmConflict explains a confirm that updated no row. Either way the
// caller gets a 409.
func confirmConflict(current *models.Seat) error {
	if current.Status == models.SeatSold {
		return apperrors.ErrSeatNotConfirmable
	}
	return fmt.Errorf("%w: seat %s changed during confirm (now %s)", apperrors.ErrSeatNotConfirmable, current.SeatNo, current.Status)
}

// Release returns a HELD seat to AVAILABLE. AVAILABLE seats are returned untouched.
func (r *SeatRepository) Release(ctx context.Context, tripID int64, seatNo string, now time.Time) (*models.Seat, error) {
	query := `
		UPDATE seats SET status = 'AVAILABLE', hold_expires_at = NULL, updated_at = NOW()
		WHERE trip_id = $1 AND seat_no = $2 AND status = 'HELD'
		RETURNING ` + seatColumns

	seat, err := scanSeat(r.db.QueryRowContext(ctx, query, tripID, seatNo))
	if errors.Is(err, sql.ErrNoRows) {
		current, err := r.get(ctx, tripID, seatNo)
		if err != nil {
			return nil, err
		}
		if current.Status == models.SeatSold {
			return nil, apperrors.ErrSeatNotConfirmable
		}
		eff := current.Effective(now)
		return &eff, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to release seat: %w", err)
	}
	return seat, nil
}

// List returns a trip's seats by position with their stored status.
func (r *SeatRepository) List(ctx context.Context, tripID int64) ([]models.Seat, error) {
	rows, err := r.db.QueryWithRetry(ctx, `SELECT `+seatColumns+` FROM seats WHERE trip_id = $1 ORDER BY position`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	seats, err := collectSeats(rows)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		if err := r.requireTrip(ctx, tripID); err != nil {
			return nil, err
		}
	}
	return seats, nil
}

// Occupancy counts effective seat states of every seeded trip at now.
func (r *SeatRepository) Occupancy(ctx context.Context, now time.Time) ([]models.TripOccupancy, error) {
	query := `
		SELECT trip_id,
		       COUNT(*) FILTER (WHERE status = 'AVAILABLE'
		                        OR (status = 'HELD' AND (hold_expires_at IS NULL OR hold_expires_at <= $1))),
		       COUNT(*) FILTER (WHERE status = 'HELD' AND hold_expires_at > $1),
		       COUNT(*) FILTER (WHERE status = 'SOLD')
		FROM seats
		GROUP BY trip_id
		ORDER BY trip_id`

	rows, err := r.db.QueryWithRetry(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to compute occupancy: %w", err)
	}
	defer rows.Close()

	var result []models.TripOccupancy
	for rows.Next() {
		var o models.TripOccupancy
		if err := rows.Scan(&o.TripID, &o.Available, &o.Held, &o.Sold); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (r *SeatRepository) get(ctx context.Context, tripID int64, seatNo string) (*models.Seat, error) {
	seat, err := scanSeat(r.db.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = $1 AND seat_no = $2`, tripID, seatNo))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSeatNotFound
	}
	return seat, err
}

func (r *SeatRepository) requireTrip(ctx context.Context, tripID int64) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM trips WHERE id = $1)`, tripID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrTripNotFound
	}
	return nil
}

func collectSeats(rows *sql.Rows) ([]models.Seat, error) {
	defer rows.Close()

	seats := []models.Seat{}
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *seat)
	}
	return seats, rows.Err()
}
