package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"setrag/internal/database"
	apperrors "setrag/internal/errors"
	"setrag/internal/models"
)

type TripRepository struct {
	db *database.DB
}

func NewTripRepository(db *database.DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) GetRoute(ctx context.Context, tripID int64) (*models.TripRoute, error) {
	route := &models.TripRoute{TripID: tripID}
	query := `
		SELECT o.name, d.name
		FROM trips t
		JOIN stations o ON o.id = t.origin_station_id
		JOIN stations d ON d.id = t.destination_station_id
		WHERE t.id = $1`

	err := r.db.QueryRowContext(ctx, query, tripID).Scan(&route.Origin, &route.Destination)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip route: %w", err)
	}
	return route, nil
}

// UpsertStation returns the id of the named station, creating it if needed.
func (r *TripRepository) UpsertStation(ctx context.Context, name string) (int64, error) {
	var id int64
	query := `
		INSERT INTO stations (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert station %s: %w", name, err)
	}
	return id, nil
}

func (r *TripRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	query := `
		INSERT INTO trips (origin_station_id, destination_station_id, departure_time)
		VALUES ($1, $2, $3)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		trip.OriginStationID,
		trip.DestinationStationID,
		trip.DepartureTime.UTC(),
	).Scan(&trip.ID)
}
