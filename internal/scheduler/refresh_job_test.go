package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
)

// fakeCalculator values every portfolio at a fixed PnL per holding.
type fakeCalculator struct {
	mu    sync.Mutex
	calls []string
	// block, when set, is waited on before each portfolio returns
	block chan struct{}
	// onCompute runs after each portfolio is computed
	onCompute func()
}

func (f *fakeCalculator) ComputePortfolio(_ context.Context, p domain.Portfolio) domain.PortfolioMetrics {
	f.mu.Lock()
	f.calls = append(f.calls, p.Name)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.onCompute != nil {
		f.onCompute()
	}

	snapshots := make([]domain.HoldingSnapshot, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		snapshots = append(snapshots, domain.HoldingSnapshot{Holding: h, PnL: decimal.NewFromInt(1)})
	}
	return domain.PortfolioMetrics{
		Name:      p.Name,
		Title:     p.Title,
		Snapshots: snapshots,
		Summary:   domain.PortfolioSummary{TotalPnL: decimal.NewFromInt(int64(len(snapshots)))},
	}
}

type recordingSink struct {
	mu     sync.Mutex
	cycles []Cycle
	err    error
}

func (s *recordingSink) Consume(_ context.Context, c Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = append(s.cycles, c)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cycles)
}

func testPortfolios() []domain.Portfolio {
	return []domain.Portfolio{
		{Name: "bro", Title: "Bro's Portfolio", Holdings: []domain.Holding{{Symbol: "A.NS"}, {Symbol: "B.NS"}}},
		{Name: "yuva", Title: "Yuva's Portfolio", Holdings: []domain.Holding{{Symbol: "C.NS"}}},
	}
}

func newTestRefreshJob(ctx context.Context, calc MetricsCalculator, sinks ...Sink) *RefreshJob {
	job := NewRefreshJob(ctx, RefreshJobConfig{
		Calculator: calc,
		Portfolios: testPortfolios(),
		Currency:   "INR",
		Sinks:      sinks,
		Log:        zerolog.Nop(),
	})
	job.newID = func() string { return "cycle-1" }
	job.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return job
}

func TestRefreshJob_Name(t *testing.T) {
	job := newTestRefreshJob(context.Background(), &fakeCalculator{})
	assert.Equal(t, "refresh", job.Name())
}

func TestRefreshJob_PublishesOneCycle(t *testing.T) {
	calc := &fakeCalculator{}
	sink := &recordingSink{}
	job := newTestRefreshJob(context.Background(), calc, sink)

	require.NoError(t, job.Run())

	assert.Equal(t, []string{"bro", "yuva"}, calc.calls)
	require.Len(t, sink.cycles, 1)

	c := sink.cycles[0]
	assert.Equal(t, "cycle-1", c.ID)
	require.Len(t, c.Metrics, 2)
	assert.Equal(t, "bro", c.Metrics[0].Name)
	assert.Equal(t, "yuva", c.Metrics[1].Name)

	assert.Equal(t, "cycle-1", c.View.CycleID)
	assert.Equal(t, "Last Updated: 2024-01-02 03:04:05", c.View.LastUpdated)
	require.Len(t, c.View.Tables, 2)
	assert.Equal(t, "Bro's Portfolio", c.View.Tables[0].Title)
	assert.Len(t, c.View.Tables[0].Records, 2)

	status, ok := job.LastCycle()
	require.True(t, ok)
	assert.Equal(t, "cycle-1", status.ID)
	assert.Equal(t, 2, status.Portfolios)
}

func TestRefreshJob_PublishViews(t *testing.T) {
	state := dashboard.NewStateManager(zerolog.Nop())
	job := newTestRefreshJob(context.Background(), &fakeCalculator{}, PublishViews(state))

	require.NoError(t, job.Run())

	v := state.Current()
	assert.Equal(t, "cycle-1", v.CycleID)
	assert.Len(t, v.Tables, 2)
}

func TestRefreshJob_EveryCycleRecomputes(t *testing.T) {
	calc := &fakeCalculator{}
	sink := &recordingSink{}
	job := newTestRefreshJob(context.Background(), calc, sink)

	require.NoError(t, job.Run())
	require.NoError(t, job.Run())

	assert.Equal(t, []string{"bro", "yuva", "bro", "yuva"}, calc.calls)
	assert.Equal(t, 2, sink.count())
}

func TestRefreshJob_SinkErrorReported(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	job := newTestRefreshJob(context.Background(), &fakeCalculator{}, failing, ok)

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	// later sinks still receive the cycle
	assert.Equal(t, 1, ok.count())
}

func TestRefreshJob_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calc := &fakeCalculator{}
	sink := &recordingSink{}
	job := newTestRefreshJob(ctx, calc, sink)

	assert.ErrorIs(t, job.Refresh(), ErrCycleCancelled)
	assert.NoError(t, job.Run())
	assert.Empty(t, calc.calls)
	assert.Equal(t, 0, sink.count())
}

func TestRefreshJob_CancelledMidCycleIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calc := &fakeCalculator{onCompute: cancel}
	sink := &recordingSink{}
	job := newTestRefreshJob(ctx, calc, sink)

	err := job.Refresh()
	assert.ErrorIs(t, err, ErrCycleCancelled)
	assert.Equal(t, []string{"bro"}, calc.calls)
	assert.Equal(t, 0, sink.count())

	_, ran := job.LastCycle()
	assert.False(t, ran)
}

func TestRefreshJob_ConcurrentRefreshIsSkipped(t *testing.T) {
	calc := &fakeCalculator{block: make(chan struct{})}
	sink := &recordingSink{}
	job := newTestRefreshJob(context.Background(), calc, sink)

	done := make(chan error, 1)
	go func() { done <- job.Refresh() }()

	require.Eventually(t, func() bool {
		calc.mu.Lock()
		defer calc.mu.Unlock()
		return len(calc.calls) == 1
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, job.Refresh(), ErrCycleInFlight)
	assert.NoError(t, job.Run())

	close(calc.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sink.count())
}
