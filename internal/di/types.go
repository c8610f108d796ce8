// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/database"
	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
	"github.com/ltpboard/ltpboard/internal/modules/history"
	"github.com/ltpboard/ltpboard/internal/modules/portfolio"
	"github.com/ltpboard/ltpboard/internal/reliability"
	"github.com/ltpboard/ltpboard/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	HistoryDB *database.DB // PnL history (nil when HISTORY_ENABLED=false)

	// Clients
	PriceFetcher domain.PriceFetcher // Yahoo Finance or static price table

	// Configuration data
	Portfolios []domain.Portfolio // Holdings, in display order

	// Repositories
	HistoryRepo *history.Repository // nil when history is disabled

	// Services
	Calculator     *portfolio.Calculator
	StateManager   *dashboard.StateManager
	HistoryService *history.Service           // nil when history is disabled
	BackupService  *reliability.BackupService // nil unless history and R2 are both configured

	// Scheduling
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	Refresh             *scheduler.RefreshJob
	HistoryCleanup      *scheduler.HistoryCleanupJob        // nil when history is disabled
	DatabaseMaintenance *reliability.DatabaseMaintenanceJob // nil when history is disabled
	Backup              *scheduler.BackupJob                // nil when backups are disabled
}

// Close releases database handles. It is safe on a partially built container.
func (c *Container) Close(log zerolog.Logger) {
	if c == nil || c.HistoryDB == nil {
		return
	}
	if err := c.HistoryDB.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close history database")
	}
}
