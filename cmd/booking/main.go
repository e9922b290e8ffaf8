package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"setrag/internal/api"
	"setrag/internal/config"
	"setrag/internal/logger"
	"setrag/internal/validation"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// smoke-check a running deployment instead of serving
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		if err := validation.Run(context.Background(), cfg); err != nil {
			logger.Fatal("Validation failed", "error", err)
		}
		return
	}

	server, err := api.NewBookingServer(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize booking service", "error", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.BookingPort,
		Handler: server.GetRouter(),
	}

	go func() {
		logger.Get().Info("Starting booking service", "port", cfg.BookingPort, "inventory", cfg.Inventory.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down booking service...")

	// in-flight sagas finish their persist step under their own timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Get().Error("Server forced to shutdown", "error", err)
	}

	if err := server.Cleanup(); err != nil {
		logger.Get().Error("Error during cleanup", "error", err)
	}

	logger.Get().Info("Booking service stopped")
}
