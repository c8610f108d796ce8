package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// HistoryCleanupSchedule runs history pruning daily at 03:30.
	HistoryCleanupSchedule = "0 30 3 * * *"
	// BackupSchedule runs the off-site backup daily at 04:00.
	BackupSchedule = "0 0 4 * * *"
)

// HistoryPruner deletes history recorded before a cutoff.
type HistoryPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// HistoryCleanupJob removes history older than the retention period
type HistoryCleanupJob struct {
	ctx           context.Context
	pruner        HistoryPruner
	retentionDays int
	now           func() time.Time
	log           zerolog.Logger
}

// NewHistoryCleanupJob creates a new HistoryCleanupJob
func NewHistoryCleanupJob(ctx context.Context, pruner HistoryPruner, retentionDays int, log zerolog.Logger) *HistoryCleanupJob {
	return &HistoryCleanupJob{
		ctx:           ctx,
		pruner:        pruner,
		retentionDays: retentionDays,
		now:           time.Now,
		log:           log.With().Str("job", "history_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *HistoryCleanupJob) Name() string {
	return "history_cleanup"
}

// Run executes the history cleanup job. A retention of zero keeps everything.
func (j *HistoryCleanupJob) Run() error {
	if j.retentionDays <= 0 {
		return nil
	}

	cutoff := j.now().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.pruner.Prune(j.ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	j.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("History cleanup completed")
	return nil
}

// Backuper creates off-site backups and rotates old ones.
type Backuper interface {
	CreateAndUploadBackup(ctx context.Context) error
	RotateOldBackups(ctx context.Context, retentionDays int) error
}

// BackupJob uploads a fresh backup and then rotates old ones
type BackupJob struct {
	ctx           context.Context
	backups       Backuper
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new BackupJob
func NewBackupJob(ctx context.Context, backups Backuper, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		ctx:           ctx,
		backups:       backups,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup job. Rotation only runs after a successful upload.
func (j *BackupJob) Run() error {
	if err := j.backups.CreateAndUploadBackup(j.ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	if err := j.backups.RotateOldBackups(j.ctx, j.retentionDays); err != nil {
		// The new backup is already safe; rotation is retried tomorrow.
		j.log.Warn().Err(err).Msg("Failed to rotate old backups")
	}
	return nil
}
