// Package domain provides core domain models and types.
package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every monetary figure is rounded to.
const MoneyPlaces = 2

// Holding is one portfolio line item for a single ticker.
// Holdings are configuration: they are loaded once and never mutated.
type Holding struct {
	Symbol        string          `json:"symbol"`
	Quantity      int64           `json:"quantity"`
	InvestedValue decimal.Decimal `json:"invested_value"`
	// AvgBuyPrice is informational only. It is never re-derived from
	// InvestedValue/Quantity and never used in computation.
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
}

// Portfolio is a named, ordered list of holdings.
type Portfolio struct {
	Name     string    `json:"name"`  // URL-safe identifier, e.g. "bro"
	Title    string    `json:"title"` // Display heading, e.g. "Bro's Portfolio"
	Holdings []Holding `json:"holdings"`
}

// HoldingSnapshot is a Holding valued at the prices of one refresh cycle.
type HoldingSnapshot struct {
	Holding
	LastPrice    decimal.Decimal `json:"last_price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	PnL          decimal.Decimal `json:"pnl"`
	// PriceAvailable is false when the lookup failed and LastPrice was
	// substituted with zero. A genuine zero price keeps it true.
	PriceAvailable bool `json:"price_available"`
}

// PortfolioSummary holds the portfolio-level totals of one refresh cycle.
type PortfolioSummary struct {
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
}

// PortfolioMetrics is the computed state of one portfolio for one refresh cycle.
type PortfolioMetrics struct {
	Name      string            `json:"name"`
	Title     string            `json:"title"`
	Snapshots []HoldingSnapshot `json:"snapshots"`
	Summary   PortfolioSummary  `json:"summary"`
}

// RoundMoney rounds a monetary amount to MoneyPlaces, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
