package database

import (
	"fmt"
	"log/slog"
)

// Schema selects which service's tables RunMigrations creates.
type Schema string

const (
	InventorySchema Schema = "inventory"
	BookingSchema   Schema = "booking"
)

var migrations = map[Schema][]string{
	InventorySchema: {
		createStationsTable,
		createTripsTable,
		createSeatsTable,
		createSeatsAllocateIndex,
	},
	BookingSchema: {
		createBookingsTable,
		createIdempotencyKeysTable,
		createBookingsTripIndex,
	},
}

func (db *DB) RunMigrations(schema Schema) error {
	steps, ok := migrations[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}

	slog.Info("Running database migrations...", "schema", schema)
	for i, migration := range steps {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("%s migration %d failed: %w", schema, i+1, err)
		}
	}

	slog.Info("All migrations completed successfully", "schema", schema, "steps", len(steps))
	return nil
}

const createStationsTable = `
CREATE TABLE IF NOT EXISTS stations (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) UNIQUE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createTripsTable = `
CREATE TABLE IF NOT EXISTS trips (
    id BIGSERIAL PRIMARY KEY,
    origin_station_id BIGINT NOT NULL REFERENCES stations(id),
    destination_station_id BIGINT NOT NULL REFERENCES stations(id),
    departure_time TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (origin_station_id <> destination_station_id)
);`

const createSeatsTable = `
CREATE TABLE IF NOT EXISTS seats (
    id BIGSERIAL PRIMARY KEY,
    trip_id BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    seat_no VARCHAR(10) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'AVAILABLE' CHECK (status IN ('AVAILABLE', 'HELD', 'SOLD')),
    hold_expires_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (trip_id, seat_no),
    UNIQUE (trip_id, position)
);`

const createSeatsAllocateIndex = `
CREATE INDEX IF NOT EXISTS idx_seats_trip_status_position ON seats(trip_id, status, position);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id BIGSERIAL PRIMARY KEY,
    pnr VARCHAR(32) NOT NULL,
    trip_id BIGINT NOT NULL,
    seat_no VARCHAR(10) NOT NULL,
    amount NUMERIC(12,2) NOT NULL,
    currency CHAR(3) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'CONFIRMED',
    idempotency_key VARCHAR(255),
    principal VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT bookings_pnr_key UNIQUE (pnr),
    CONSTRAINT bookings_idempotency_key_key UNIQUE (idempotency_key)
);`

const createIdempotencyKeysTable = `
CREATE TABLE IF NOT EXISTS idempotency_keys (
    key VARCHAR(255) PRIMARY KEY,
    booking_id BIGINT NOT NULL REFERENCES bookings(id),
    pnr VARCHAR(32) NOT NULL,
    response TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createBookingsTripIndex = `
CREATE INDEX IF NOT EXISTS idx_bookings_trip ON bookings(trip_id);`
