package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ltpboard/ltpboard/internal/database"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
	"github.com/ltpboard/ltpboard/internal/reliability"
	"github.com/ltpboard/ltpboard/internal/scheduler"
)

// Overall statuses reported by /api/system/status
const (
	StatusStarting = "starting" // no cycle has completed yet
	StatusHealthy  = "healthy"
	StatusStale    = "stale" // the last completed cycle is older than staleAfter
)

// minStaleAfter bounds staleness detection for very short refresh intervals
const minStaleAfter = 30 * time.Second

// Refresher runs refresh cycles on demand and reports the last one
type Refresher interface {
	Refresh() error
	LastCycle() (scheduler.CycleStatus, bool)
}

// BackupLister lists the archives kept in off-site storage
type BackupLister interface {
	ListBackups(ctx context.Context) ([]reliability.BackupInfo, error)
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status          string                 `json:"status"`
	Uptime          string                 `json:"uptime"`
	UptimeSeconds   int64                  `json:"uptime_seconds"`
	CPUPercent      float64                `json:"cpu_percent"`
	MemoryPercent   float64                `json:"memory_percent"`
	RefreshInterval string                 `json:"refresh_interval"`
	LastCycle       *scheduler.CycleStatus `json:"last_cycle,omitempty"`
	LastCycleAge    string                 `json:"last_cycle_age,omitempty"`
	Subscribers     int                    `json:"subscribers"`
	HistoryEnabled  bool                   `json:"history_enabled"`
	BackupsEnabled  bool                   `json:"backups_enabled"`
}

// DatabaseStatsResponse represents history database statistics
type DatabaseStatsResponse struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	SizeMB      float64         `json:"size_mb"`
	WALSizeMB   float64         `json:"wal_size_mb"`
	Stats       *database.Stats `json:"stats"`
	LastChecked string          `json:"last_checked"`
}

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log             zerolog.Logger
	startupTime     time.Time
	state           *dashboard.StateManager
	cycles          Refresher
	refreshInterval time.Duration
	historyDB       *database.DB
	backups         BackupLister
	now             func() time.Time
	sampleSystem    func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	state *dashboard.StateManager,
	cycles Refresher,
	refreshInterval time.Duration,
	historyDB *database.DB,
	backups BackupLister,
) *SystemHandlers {
	h := &SystemHandlers{
		log:             log.With().Str("component", "system_handlers").Logger(),
		startupTime:     time.Now(),
		state:           state,
		cycles:          cycles,
		refreshInterval: refreshInterval,
		historyDB:       historyDB,
		backups:         backups,
		now:             time.Now,
	}
	h.sampleSystem = h.getSystemStats
	return h
}

// staleAfter is how old the last cycle may get before the board is stale
func (h *SystemHandlers) staleAfter() time.Duration {
	d := 3 * h.refreshInterval
	if d < minStaleAfter {
		d = minStaleAfter
	}
	return d
}

// evaluate returns the overall status and, when a cycle has completed, its
// status and age
func (h *SystemHandlers) evaluate() (string, *scheduler.CycleStatus, time.Duration) {
	last, ok := h.cycles.LastCycle()
	if !ok {
		return StatusStarting, nil, 0
	}

	age := h.now().Sub(last.FinishedAt)
	if age > h.staleAfter() {
		return StatusStale, &last, age
	}
	return StatusHealthy, &last, age
}

// GetSystemStatusSnapshot returns a snapshot of the current system status.
func (h *SystemHandlers) GetSystemStatusSnapshot() SystemStatusResponse {
	status, last, age := h.evaluate()
	cpuPercent, memPercent := h.sampleSystem()
	uptime := h.now().Sub(h.startupTime)

	response := SystemStatusResponse{
		Status:          status,
		Uptime:          uptime.Truncate(time.Second).String(),
		UptimeSeconds:   int64(uptime.Seconds()),
		CPUPercent:      cpuPercent,
		MemoryPercent:   memPercent,
		RefreshInterval: h.refreshInterval.String(),
		LastCycle:       last,
		Subscribers:     h.state.SubscriberCount(),
		HistoryEnabled:  h.historyDB != nil,
		BackupsEnabled:  h.backups != nil,
	}
	if last != nil {
		response.LastCycleAge = age.Truncate(time.Millisecond).String()
	}

	return response
}

// HandleSystemStatus returns comprehensive system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")
	writeJSON(w, http.StatusOK, h.GetSystemStatusSnapshot(), h.log)
}

// HandleDatabaseStats returns history database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	if h.historyDB == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history is disabled"}, h.log)
		return
	}

	stats, err := h.historyDB.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get database stats"}, h.log)
		return
	}

	writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        h.historyDB.Name(),
		Path:        h.historyDB.Path(),
		SizeMB:      float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB:   float64(stats.WALSizeBytes) / 1024 / 1024,
		Stats:       stats,
		LastChecked: h.now().Format(time.RFC3339),
	}, h.log)
}

// HandleListBackups lists the archives in off-site storage, newest first
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "backups are not configured"}, h.log)
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to list backups"}, h.log)
		return
	}
	if backups == nil {
		backups = []reliability.BackupInfo{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(backups),
		"backups": backups,
	}, h.log)
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) so the status call stays fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
