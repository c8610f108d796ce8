// Package main is the entry point for the ltpboard portfolio dashboard.
// The server values a fixed set of stock portfolios at last traded prices on
// a short interval and serves the result as a live web dashboard.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ltpboard/ltpboard/internal/config"
	"github.com/ltpboard/ltpboard/internal/di"
	"github.com/ltpboard/ltpboard/internal/server"
	"github.com/ltpboard/ltpboard/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes logging
// 3. Wires databases, price client, services and jobs via the DI container
// 4. Starts the HTTP server
// 5. Starts the scheduler and runs the first refresh cycle
// 6. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("port", cfg.Port).
		Dur("refresh_interval", cfg.RefreshInterval).
		Str("price_source", cfg.PriceSource).
		Bool("history", cfg.HistoryEnabled).
		Msg("Starting ltpboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close(log)

	serverCfg := server.Config{
		Log:             log,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		Portfolios:      container.Portfolios,
		State:           container.StateManager,
		Refresher:       jobs.Refresh,
		RefreshInterval: cfg.RefreshInterval,
		History:         container.HistoryService,
		HistoryDB:       container.HistoryDB,
	}
	// A nil *BackupService must not become a non-nil interface
	if container.BackupService != nil {
		serverCfg.Backups = container.BackupService
	}
	srv := server.New(serverCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// The schedule's first tick is one interval away, so run a cycle now.
	// Requests arriving before it completes get 503 from /api/dashboard.
	container.Scheduler.Start()
	go func() {
		if err := container.Scheduler.RunNow(jobs.Refresh); err != nil {
			log.Error().Err(err).Msg("Initial refresh failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// Stop the scheduler first so no cycle publishes into a closing server
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
