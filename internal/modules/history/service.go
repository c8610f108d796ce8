package history

import (
	"context"
	"fmt"

	"github.com/ltpboard/ltpboard/pkg/formulas"
)

// DefaultTrendWindow is the moving-average window used when none is given.
const DefaultTrendWindow = 12

// Service derives PnL trends from recorded history
type Service struct {
	repo *Repository
}

// NewService creates a new history service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns the most recent entries for a portfolio, oldest first.
func (s *Service) List(ctx context.Context, portfolio string, limit int) ([]Entry, error) {
	return s.repo.List(ctx, portfolio, limit)
}

// Trend computes statistics over the last limit entries of a portfolio's
// total PnL. The moving average is empty until window entries exist.
func (s *Service) Trend(ctx context.Context, portfolio string, limit, window int) (*Trend, error) {
	if window <= 0 {
		window = DefaultTrendWindow
	}

	entries, err := s.repo.List(ctx, portfolio, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", portfolio, err)
	}

	return buildTrend(portfolio, entries, window), nil
}

func buildTrend(portfolio string, entries []Entry, window int) *Trend {
	points := make([]TrendPoint, 0, len(entries))
	pnl := make([]float64, 0, len(entries))
	for _, e := range entries {
		v := e.TotalPnL.InexactFloat64()
		points = append(points, TrendPoint{
			RecordedAt:      e.RecordedAt,
			TotalInvestment: e.TotalInvestment.InexactFloat64(),
			TotalPnL:        v,
		})
		pnl = append(pnl, v)
	}

	return &Trend{
		Portfolio:   portfolio,
		Points:      points,
		Count:       len(points),
		Mean:        formulas.Mean(pnl),
		StdDev:      formulas.StdDev(pnl),
		Min:         formulas.Min(pnl),
		Max:         formulas.Max(pnl),
		Change:      formulas.Change(pnl),
		MaxDrawdown: formulas.MaxDrawdown(pnl),
		Window:      window,
		SMA:         formulas.SMASeries(pnl, window),
		LatestSMA:   formulas.CalculateSMA(pnl, window),
	}
}
