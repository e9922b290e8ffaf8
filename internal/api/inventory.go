package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"setrag/internal/config"
	"setrag/internal/database"
	"setrag/internal/handlers"
	"setrag/internal/logger"
	"setrag/internal/messaging"
	"setrag/internal/network"
	"setrag/internal/repository"
	"setrag/internal/service"
)

// InventoryServer hosts the seat ledger and the trip directory
type InventoryServer struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	services *service.InventoryServices
}

func NewInventoryServer(cfg *config.Config) (*InventoryServer, error) {
	gin.SetMode(cfg.GinMode)

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	s := &InventoryServer{config: cfg, nats: natsClient}

	var seats service.SeatStore
	var trips service.TripStore
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := repository.NewMemoryStore()
		for _, r := range network.Routes {
			store.AddTrip(r.Origin, r.Destination)
		}
		logger.Get().Warn("Using in-memory seat storage, state is lost on restart", "trips", len(network.Routes))
		seats, trips = store, store
	default:
		db, err := database.Connect(cfg.InventoryDB)
		if err != nil {
			natsClient.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.RunMigrations(database.InventorySchema); err != nil {
			db.Close()
			natsClient.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s.db = db
		repos := repository.NewInventoryRepositories(db)
		seats, trips = repos.Seats, repos.Trips
	}

	s.services = service.NewInventoryServices(seats, trips, natsClient, cfg.AllocateDefaultHold)
	s.router = newRouter(cfg)
	s.setupRoutes()

	return s, nil
}

func (s *InventoryServer) setupRoutes() {
	var db handlers.HealthChecker
	if s.db != nil {
		db = s.db
	}
	h := handlers.NewInventoryHandlers(s.services.Ledger, db)

	api := s.router.Group("/api")
	{
		trips := api.Group("/trips/:trip_id")
		{
			trips.GET("/route", h.TripRoute)
			trips.GET("/seats", h.ListSeats)
			trips.POST("/seats/seed", h.SeedSeats)
			trips.POST("/seats/allocate", h.AllocateSeat)
			trips.POST("/seats/:seat_no/confirm", h.ConfirmSeat)
			trips.POST("/seats/:seat_no/release", h.ReleaseSeat)
		}
	}

	s.router.GET("/health", h.Health)
}

func (s *InventoryServer) GetRouter() *gin.Engine {
	return s.router
}

func (s *InventoryServer) Ledger() *service.LedgerService {
	return s.services.Ledger
}

func (s *InventoryServer) Cleanup() error {
	if err := s.nats.Close(); err != nil {
		logger.Get().Error("Error closing NATS connection", "error", err)
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}
	return nil
}
