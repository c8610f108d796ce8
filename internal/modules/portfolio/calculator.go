// Package portfolio computes per-holding and portfolio-level profit and loss.
package portfolio

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ltpboard/ltpboard/internal/domain"
)

// Metrics is the result of valuing one list of holdings.
type Metrics struct {
	Snapshots       []domain.HoldingSnapshot
	TotalInvestment decimal.Decimal
	TotalPnL        decimal.Decimal
}

// Summary returns the totals as a domain.PortfolioSummary.
func (m Metrics) Summary() domain.PortfolioSummary {
	return domain.PortfolioSummary{
		TotalInvestment: m.TotalInvestment,
		TotalPnL:        m.TotalPnL,
	}
}

// Calculator values holdings at the latest traded prices.
//
// Responsibilities:
//   - Look up one price per holding, sequentially, in input order
//   - Apply the unavailable-price policy (substituteUnavailablePrice)
//   - Derive current value and PnL per holding, and portfolio totals
//
// The calculator keeps no state between calls: every call rebuilds all
// snapshots from the holdings it is given.
type Calculator struct {
	prices domain.PriceFetcher
	log    zerolog.Logger
}

// NewCalculator creates a new metrics calculator
func NewCalculator(prices domain.PriceFetcher, log zerolog.Logger) *Calculator {
	return &Calculator{
		prices: prices,
		log:    log.With().Str("service", "metrics").Logger(),
	}
}

// ComputeMetrics values every holding and aggregates the totals.
//
// Holdings are neither validated nor deduplicated: repeated symbols are
// looked up again, and zero or negative quantities go through the same
// arithmetic. An empty list yields zero totals and no snapshots.
func (c *Calculator) ComputeMetrics(ctx context.Context, holdings []domain.Holding) Metrics {
	snapshots := make([]domain.HoldingSnapshot, 0, len(holdings))
	invested := decimal.Zero
	pnl := decimal.Zero
	unavailable := 0

	for _, h := range holdings {
		result := c.prices.FetchLastPrice(ctx, h.Symbol)
		if !result.Available {
			unavailable++
		}

		snap := valueHolding(h, substituteUnavailablePrice(result), result.Available)
		snapshots = append(snapshots, snap)

		invested = invested.Add(h.InvestedValue)
		pnl = pnl.Add(snap.PnL)
	}

	if unavailable > 0 {
		c.log.Warn().
			Int("unavailable", unavailable).
			Int("holdings", len(holdings)).
			Msg("Some prices were unavailable and valued at zero")
	}

	return Metrics{
		Snapshots:       snapshots,
		TotalInvestment: domain.RoundMoney(invested),
		TotalPnL:        domain.RoundMoney(pnl),
	}
}

// ComputePortfolio runs ComputeMetrics over a configured portfolio.
func (c *Calculator) ComputePortfolio(ctx context.Context, p domain.Portfolio) domain.PortfolioMetrics {
	m := c.ComputeMetrics(ctx, p.Holdings)
	return domain.PortfolioMetrics{
		Name:      p.Name,
		Title:     p.Title,
		Snapshots: m.Snapshots,
		Summary:   m.Summary(),
	}
}

// substituteUnavailablePrice values a failed lookup at zero, so a single bad
// symbol never keeps the rest of the portfolio from being shown. The holding
// then reports PnL == -InvestedValue, the same as a stock trading at zero.
func substituteUnavailablePrice(r domain.PriceResult) decimal.Decimal {
	if !r.Available {
		return decimal.Zero
	}
	return r.Price
}

func valueHolding(h domain.Holding, price decimal.Decimal, available bool) domain.HoldingSnapshot {
	current := domain.RoundMoney(price.Mul(decimal.NewFromInt(h.Quantity)))
	return domain.HoldingSnapshot{
		Holding:        h,
		LastPrice:      price,
		CurrentValue:   current,
		PnL:            domain.RoundMoney(current.Sub(h.InvestedValue)),
		PriceAvailable: available,
	}
}
