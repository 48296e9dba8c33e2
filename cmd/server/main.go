// Package main is the entry point for the frontier HTTP service.
//
// The service stores daily price history, searches the efficient frontier
// for a set of assets and plans rebalances toward the resulting portfolios.
//
// Databases:
// - history.db: daily closes per asset
// - runs.db: stored optimization runs (recomputable, cache profile)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/di"
	"github.com/aristath/frontier/internal/server"
	"github.com/aristath/frontier/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from .env and environment variables
// 2. Initializes logging
// 3. Wires databases, repositories, services and jobs
// 4. Starts the HTTP server and the scheduler
// 5. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("trials", cfg.Trials).
		Int("workers", cfg.Workers).
		Msg("Starting frontier")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stops the scheduler (waiting for running jobs) and closes databases
	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close databases")
	}

	log.Info().Msg("Server stopped")
}
