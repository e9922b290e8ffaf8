package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"setrag/internal/config"
	"setrag/internal/database"
	"setrag/internal/external"
	"setrag/internal/logger"
	"setrag/internal/models"
	"setrag/internal/network"
	"setrag/internal/repository"
	"setrag/internal/service"
)

var (
	seatCount = flag.Int("seats", service.DefaultSeedCount, "Seats to seed per trip")
	days      = flag.Int("days", 7, "Days of departures to create, starting tomorrow")
	dryRun    = flag.Bool("dry-run", false, "Show what would be generated without making changes")
	viaAPI    = flag.Bool("via-api", false, "Seed seats through the inventory HTTP API instead of the database")
)

// departures leave Libreville time (UTC+1) at these hours
var departureHours = []int{7, 15}

var libreville = time.FixedZone("WAT", 60*60)

// SeatSeeder is satisfied by the ledger and by the inventory HTTP client
type SeatSeeder interface {
	Seed(ctx context.Context, tripID int64, count int) ([]models.Seat, bool, error)
}

type plannedTrip struct {
	Route     network.Route
	Departure time.Time
}

// planTrips lists one trip per route and departure hour for each day after from.
func planTrips(routes []network.Route, from time.Time, days int) []plannedTrip {
	from = from.In(libreville)
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, libreville).AddDate(0, 0, 1)

	var trips []plannedTrip
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		for _, hour := range departureHours {
			for _, r := range routes {
				trips = append(trips, plannedTrip{Route: r, Departure: day.Add(time.Duration(hour) * time.Hour)})
			}
		}
	}
	return trips
}

type TripGenerator struct {
	trips  *repository.TripRepository
	seeder SeatSeeder
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if *seatCount < 1 || *seatCount > service.MaxSeedCount {
		logger.Fatal("Invalid seat count", "seats", *seatCount, "max", service.MaxSeedCount)
	}

	plan := planTrips(network.Routes, time.Now(), *days)
	slog.Info("Starting trip generator", "trips", len(plan), "seats_per_trip", *seatCount, "via_api", *viaAPI)

	if *dryRun {
		for _, p := range plan {
			slog.Info("[DRY RUN] Would create trip", "origin", p.Route.Origin, "destination", p.Route.Destination, "departure", p.Departure)
		}
		return
	}

	db, err := database.Connect(cfg.InventoryDB)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(database.InventorySchema); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	repos := repository.NewInventoryRepositories(db)

	var seeder SeatSeeder
	if *viaAPI {
		seeder = external.NewInventoryClient(cfg.Inventory)
	} else {
		seeder = service.NewLedgerService(repos.Seats, repos.Trips, nil, cfg.AllocateDefaultHold)
	}

	g := &TripGenerator{trips: repos.Trips, seeder: seeder}
	if err := g.Generate(context.Background(), plan, *seatCount); err != nil {
		slog.Error("Trip generation failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Trip generation completed successfully")
}

func (g *TripGenerator) Generate(ctx context.Context, plan []plannedTrip, seats int) error {
	stations := make(map[string]int64, len(network.Stations))
	for _, name := range network.Stations {
		id, err := g.trips.UpsertStation(ctx, name)
		if err != nil {
			return err
		}
		stations[name] = id
	}

	for _, p := range plan {
		trip := &models.Trip{
			OriginStationID:      stations[p.Route.Origin],
			DestinationStationID: stations[p.Route.Destination],
			DepartureTime:        p.Departure,
		}
		if err := g.trips.CreateTrip(ctx, trip); err != nil {
			return fmt.Errorf("failed to create trip %s -> %s: %w", p.Route.Origin, p.Route.Destination, err)
		}

		seeded, created, err := g.seeder.Seed(ctx, trip.ID, seats)
		if err != nil {
			slog.Error("Failed to seed trip", "trip_id", trip.ID, "error", err)
			continue
		}
		slog.Info("Trip ready",
			"trip_id", trip.ID,
			"origin", p.Route.Origin,
			"destination", p.Route.Destination,
			"departure", p.Departure,
			"seats", len(seeded),
			"created", created,
		)
	}
	return nil
}
