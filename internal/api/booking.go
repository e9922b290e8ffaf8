package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"setrag/internal/cache"
	"setrag/internal/config"
	"setrag/internal/database"
	"setrag/internal/external"
	"setrag/internal/handlers"
	"setrag/internal/logger"
	"setrag/internal/messaging"
	"setrag/internal/middleware"
	"setrag/internal/repository"
	"setrag/internal/service"
)

var _ service.RouteInvalidator = (*cache.RouteCache)(nil)

// BookingServer hosts pricing and the booking saga. It reaches the
// inventory service only through HTTP.
type BookingServer struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	redis    *redis.Client
	services *service.BookingServices
}

func NewBookingServer(cfg *config.Config) (*BookingServer, error) {
	gin.SetMode(cfg.GinMode)

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	s := &BookingServer{config: cfg, nats: natsClient}

	inventory := external.NewInventoryClient(cfg.Inventory)

	var directory service.TripDirectory = inventory
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			s.Cleanup()
			return nil, err
		}
		s.redis = rdb
		directory = cache.NewRouteCache(rdb, inventory, cfg.Redis.RouteTTL)
		logger.Get().Info("Route cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.RouteTTL)
	}

	var store service.BookingStore
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Get().Warn("Using in-memory booking storage, bookings are lost on restart")
		store = repository.NewMemoryBookingStore()
	default:
		db, err := database.Connect(cfg.BookingDB)
		if err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		if err := db.RunMigrations(database.BookingSchema); err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		store = repository.NewBookingRepository(db)
	}

	s.services = service.NewBookingServices(inventory, directory, store, natsClient, cfg.BookingHoldDuration)
	s.router = newRouter(cfg)
	s.setupRoutes()

	return s, nil
}

func (s *BookingServer) setupRoutes() {
	var db handlers.HealthChecker
	if s.db != nil {
		db = s.db
	}
	h := handlers.NewBookingHandlers(s.services.Bookings, db)
	auth := middleware.JWTAuth(s.config.JWTSecret)

	api := s.router.Group("/api")
	{
		api.POST("/price/quote", h.Quote)
		api.POST("/booking", auth, h.Book)
		api.GET("/bookings/:pnr", auth, h.GetBooking)
	}

	s.router.GET("/health", h.Health)
}

func (s *BookingServer) GetRouter() *gin.Engine {
	return s.router
}

func (s *BookingServer) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Get().Error("Error closing Redis connection", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}
	return nil
}
