package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"setrag/cmd/inventory/jobs"
	"setrag/internal/api"
	"setrag/internal/config"
	"setrag/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	server, err := api.NewInventoryServer(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize inventory service", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	occupancy := jobs.NewOccupancyJob(server.Ledger(), cfg.OccupancyInterval)
	occupancy.Start(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.InventoryPort,
		Handler: server.GetRouter(),
	}

	go func() {
		logger.Get().Info("Starting inventory service", "port", cfg.InventoryPort, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down inventory service...")
	occupancy.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Get().Error("Server forced to shutdown", "error", err)
	}

	if err := server.Cleanup(); err != nil {
		logger.Get().Error("Error during cleanup", "error", err)
	}

	logger.Get().Info("Inventory service stopped")
}
