package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/config"
	"github.com/ltpboard/ltpboard/internal/modules/history"
	"github.com/ltpboard/ltpboard/internal/reliability"
	"github.com/ltpboard/ltpboard/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers every job on it.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	container.Scheduler = sched
	instances := &JobInstances{}

	// ==========================================
	// Refresh: price lookups, metrics, view publish
	// ==========================================
	sinks := []scheduler.Sink{scheduler.PublishViews(container.StateManager)}
	if container.HistoryRepo != nil {
		sinks = append(sinks, history.NewRecorder(container.HistoryRepo))
	}

	refresh := scheduler.NewRefreshJob(sched.Context(), scheduler.RefreshJobConfig{
		Calculator: container.Calculator,
		Portfolios: container.Portfolios,
		Currency:   cfg.Currency,
		Sinks:      sinks,
		Log:        log,
	})
	if err := sched.AddJob(scheduler.Every(cfg.RefreshInterval), refresh); err != nil {
		return nil, err
	}
	instances.Refresh = refresh

	if container.HistoryDB == nil {
		return instances, nil
	}

	// ==========================================
	// History retention
	// ==========================================
	cleanup := scheduler.NewHistoryCleanupJob(sched.Context(), container.HistoryRepo, cfg.HistoryRetentionDays, log)
	if err := sched.AddJob(scheduler.HistoryCleanupSchedule, cleanup); err != nil {
		return nil, err
	}
	instances.HistoryCleanup = cleanup

	// ==========================================
	// Database maintenance
	// ==========================================
	maintenance := reliability.NewDatabaseMaintenanceJob(sched.Context(), container.HistoryDB, log)
	if err := sched.AddJob(reliability.DatabaseMaintenanceSchedule, maintenance); err != nil {
		return nil, err
	}
	instances.DatabaseMaintenance = maintenance

	// ==========================================
	// Off-site backup
	// ==========================================
	if container.BackupService != nil {
		backup := scheduler.NewBackupJob(sched.Context(), container.BackupService, cfg.Backup.RetentionDays, log)
		if err := sched.AddJob(scheduler.BackupSchedule, backup); err != nil {
			return nil, err
		}
		instances.Backup = backup
	}

	return instances, nil
}
