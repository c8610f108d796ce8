package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/database"
)

// DatabaseMaintenanceSchedule runs database maintenance on Sundays at 03:00.
const DatabaseMaintenanceSchedule = "0 0 3 * * SUN"

// DatabaseMaintenanceJob checks the history database and reclaims the space
// left behind by history pruning
type DatabaseMaintenanceJob struct {
	ctx context.Context
	db  *database.DB
	log zerolog.Logger
}

// NewDatabaseMaintenanceJob creates a new database maintenance job
func NewDatabaseMaintenanceJob(ctx context.Context, db *database.DB, log zerolog.Logger) *DatabaseMaintenanceJob {
	return &DatabaseMaintenanceJob{
		ctx: ctx,
		db:  db,
		log: log.With().Str("job", "database_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *DatabaseMaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance job
func (j *DatabaseMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting database maintenance")
	startTime := time.Now()

	// Step 1: Integrity check
	if err := j.db.HealthCheck(j.ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	before, err := j.db.GetStats()
	if err != nil {
		return err
	}

	// Step 2: WAL checkpoint (prevent bloat)
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		// Not critical, the next autocheckpoint catches up
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	// Step 3: Return pages freed by pruning to the filesystem
	if _, err := j.db.Conn().ExecContext(j.ctx, "PRAGMA incremental_vacuum"); err != nil {
		return fmt.Errorf("incremental vacuum failed: %w", err)
	}

	after, err := j.db.GetStats()
	if err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Int64("pages_before", before.PageCount).
		Int64("pages_after", after.PageCount).
		Msg("Database maintenance completed successfully")

	return nil
}
