package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"setrag/internal/cache"
	"setrag/internal/database"
	"setrag/internal/external"
	"setrag/internal/messaging"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds the settings shared by every binary; each one reads the parts it needs.
type Config struct {
	InventoryPort  string
	BookingPort    string
	ConsumersPort  string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	MetricsEnabled bool
	StorageDriver  string

	InventoryDB database.Config
	BookingDB   database.Config
	NATS        messaging.Config
	Redis       cache.Config
	Inventory   external.InventoryConfig

	BookingHoldDuration time.Duration
	AllocateDefaultHold time.Duration
	JWTSecret           string
	OccupancyInterval   time.Duration
}

// Load reads configuration from the environment, after an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	return &Config{
		InventoryPort:  getEnv("INVENTORY_PORT", "8105"),
		BookingPort:    getEnv("BOOKING_PORT", "8106"),
		ConsumersPort:  getEnv("CONSUMERS_PORT", "8107"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),

		InventoryDB: loadDatabase("INVENTORY_DB", "setrag_inventory"),
		BookingDB:   loadDatabase("BOOKING_DB", "setrag_booking"),

		NATS: messaging.Config{
			Enabled:   getEnvBool("NATS_ENABLED", false),
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "setrag"),
			ClientID:  getEnv("NATS_CLIENT_ID", "setrag-"+strconv.Itoa(os.Getpid())),
		},

		Redis: cache.Config{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			RouteTTL: getEnvDuration("ROUTE_CACHE_TTL", 10*time.Minute),
		},

		Inventory: external.InventoryConfig{
			BaseURL: getEnv("INVENTORY_BASE_URL", "http://localhost:8105"),
			Timeout: time.Duration(getEnvInt("INVENTORY_TIMEOUT_SEC", 10)) * time.Second,
		},

		BookingHoldDuration: getEnvDuration("BOOKING_HOLD_DURATION", 20*time.Minute),
		AllocateDefaultHold: getEnvDuration("ALLOCATE_DEFAULT_HOLD", 15*time.Minute),
		JWTSecret:           getEnv("USERS_JWT_SECRET", ""),
		OccupancyInterval:   getEnvDuration("OCCUPANCY_INTERVAL", 30*time.Second),
	}
}

func loadDatabase(prefix, defaultName string) database.Config {
	return database.Config{
		Host:               getEnv(prefix+"_HOST", "localhost"),
		Port:               getEnvInt(prefix+"_PORT", 5432),
		User:               getEnv(prefix+"_USER", "setrag"),
		Password:           getEnv(prefix+"_PASSWORD", "setrag"),
		DBName:             getEnv(prefix+"_NAME", defaultName),
		SSLMode:            getEnv(prefix+"_SSLMODE", "disable"),
		MaxOpenConns:       getEnvInt(prefix+"_MAX_OPEN_CONNS", 50),
		MaxIdleConns:       getEnvInt(prefix+"_MAX_IDLE_CONNS", 10),
		ConnMaxLifetimeMin: getEnvInt(prefix+"_CONN_MAX_LIFETIME_MIN", 5),
		ConnMaxIdleTimeMin: getEnvInt(prefix+"_CONN_MAX_IDLE_TIME_MIN", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("20m") and bare integers as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
