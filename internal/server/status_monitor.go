package server

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// StatusMonitor periodically evaluates the refresh status and logs when the
// board goes stale or recovers
type StatusMonitor struct {
	systemHandlers *SystemHandlers
	log            zerolog.Logger

	lastStatus string
	done       chan struct{}
	stopOnce   sync.Once
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(systemHandlers *SystemHandlers, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		systemHandlers: systemHandlers,
		log:            log.With().Str("component", "status_monitor").Logger(),
		lastStatus:     StatusStarting,
		done:           make(chan struct{}),
	}
}

// Start begins periodic status monitoring
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop ends monitoring. It is safe to call more than once.
func (m *StatusMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// monitor runs the periodic monitoring loop
func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.checkStatus()
		}
	}
}

// checkStatus logs status transitions only
func (m *StatusMonitor) checkStatus() {
	status, last, age := m.systemHandlers.evaluate()
	if status == m.lastStatus {
		return
	}

	switch status {
	case StatusStale:
		m.log.Warn().
			Str("last_cycle", last.ID).
			Dur("age", age).
			Dur("stale_after", m.systemHandlers.staleAfter()).
			Msg("Dashboard is stale: no refresh cycle completed recently")
	case StatusHealthy:
		m.log.Info().Str("previous", m.lastStatus).Msg("Dashboard refresh is healthy")
	}

	m.lastStatus = status
}
