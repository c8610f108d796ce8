package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
)

var (
	// ErrCycleInFlight is returned when a refresh is requested while another
	// cycle is still running.
	ErrCycleInFlight = errors.New("refresh cycle already in flight")

	// ErrCycleCancelled is returned when the job context ends mid-cycle. The
	// partial results are discarded.
	ErrCycleCancelled = errors.New("refresh cycle cancelled")
)

// MetricsCalculator values one portfolio at current prices.
type MetricsCalculator interface {
	ComputePortfolio(ctx context.Context, p domain.Portfolio) domain.PortfolioMetrics
}

// Cycle is the complete output of one refresh cycle.
type Cycle struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Metrics    []domain.PortfolioMetrics
	View       dashboard.View
}

// Sink receives every completed cycle.
type Sink interface {
	Consume(ctx context.Context, c Cycle) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, c Cycle) error

// Consume calls f(ctx, c).
func (f SinkFunc) Consume(ctx context.Context, c Cycle) error {
	return f(ctx, c)
}

// ViewPublisher is the part of dashboard.StateManager a refresh needs.
type ViewPublisher interface {
	Publish(v dashboard.View)
}

// PublishViews returns a Sink that hands each cycle's view to p.
func PublishViews(p ViewPublisher) Sink {
	return SinkFunc(func(_ context.Context, c Cycle) error {
		p.Publish(c.View)
		return nil
	})
}

// CycleStatus describes the last completed cycle.
type CycleStatus struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	Portfolios int           `json:"portfolios"`
}

// RefreshJobConfig holds the dependencies of a RefreshJob.
type RefreshJobConfig struct {
	Calculator MetricsCalculator
	Portfolios []domain.Portfolio
	Currency   string
	Sinks      []Sink
	Log        zerolog.Logger
}

// RefreshJob recomputes every portfolio and publishes the result.
//
// One cycle values the portfolios sequentially in configured order, builds
// the dashboard view and passes the cycle to every sink. At most one cycle
// runs at a time: a refresh requested while one is in flight is skipped.
type RefreshJob struct {
	ctx        context.Context
	calculator MetricsCalculator
	portfolios []domain.Portfolio
	currency   string
	sinks      []Sink
	log        zerolog.Logger

	now   func() time.Time
	newID func() string

	running sync.Mutex

	statusMu sync.RWMutex
	last     CycleStatus
	ran      bool
}

// NewRefreshJob creates a refresh job bound to ctx. Cancelling ctx stops the
// current cycle and every later one.
func NewRefreshJob(ctx context.Context, cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		ctx:        ctx,
		calculator: cfg.Calculator,
		portfolios: cfg.Portfolios,
		currency:   cfg.Currency,
		sinks:      cfg.Sinks,
		log:        cfg.Log.With().Str("job", "refresh").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "refresh"
}

// Run executes one refresh cycle. Overlapping and cancelled cycles are not
// failures from the scheduler's point of view.
func (j *RefreshJob) Run() error {
	err := j.Refresh()
	switch {
	case errors.Is(err, ErrCycleInFlight):
		j.log.Debug().Msg("Previous cycle still running, skipping tick")
		return nil
	case errors.Is(err, ErrCycleCancelled):
		j.log.Info().Msg("Refresh cycle cancelled, results discarded")
		return nil
	}
	return err
}

// Refresh runs one cycle now. It returns ErrCycleInFlight without waiting
// when another cycle holds the lock.
func (j *RefreshJob) Refresh() error {
	if !j.running.TryLock() {
		return ErrCycleInFlight
	}
	defer j.running.Unlock()

	ctx := j.ctx
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCycleCancelled, err)
	}

	c := Cycle{
		ID:        j.newID(),
		StartedAt: j.now(),
		Metrics:   make([]domain.PortfolioMetrics, 0, len(j.portfolios)),
	}
	log := j.log.With().Str("cycle_id", c.ID).Logger()
	log.Debug().Int("portfolios", len(j.portfolios)).Msg("Refresh cycle started")

	for _, p := range j.portfolios {
		pm := j.calculator.ComputePortfolio(ctx, p)
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCycleCancelled, err)
		}
		c.Metrics = append(c.Metrics, pm)
	}

	c.FinishedAt = j.now()
	c.View = dashboard.BuildView(c.Metrics, c.FinishedAt, j.currency)
	c.View.CycleID = c.ID

	var errs []error
	for _, sink := range j.sinks {
		if err := sink.Consume(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}

	j.statusMu.Lock()
	j.last = CycleStatus{
		ID:         c.ID,
		StartedAt:  c.StartedAt,
		FinishedAt: c.FinishedAt,
		Duration:   c.FinishedAt.Sub(c.StartedAt),
		Portfolios: len(c.Metrics),
	}
	j.ran = true
	j.statusMu.Unlock()

	log.Info().
		Dur("duration", c.FinishedAt.Sub(c.StartedAt)).
		Msg("Refresh cycle completed")

	if len(errs) > 0 {
		return fmt.Errorf("cycle %s: %w", c.ID, errors.Join(errs...))
	}
	return nil
}

// LastCycle returns the status of the most recent completed cycle.
func (j *RefreshJob) LastCycle() (CycleStatus, bool) {
	j.statusMu.RLock()
	defer j.statusMu.RUnlock()
	return j.last, j.ran
}
