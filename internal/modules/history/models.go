// Package history keeps an append-only record of portfolio totals, one entry
// per portfolio per refresh cycle, and derives PnL trends from it.
package history

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one portfolio's summary for one refresh cycle.
type Entry struct {
	CycleID         string          `json:"cycle_id"`
	Portfolio       string          `json:"portfolio"`
	RecordedAt      time.Time       `json:"recorded_at"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
	Holdings        []HoldingRecord `json:"holdings"`
}

// HoldingRecord is the stored form of a holding snapshot. Amounts are kept
// as decimal strings so they survive encoding exactly.
type HoldingRecord struct {
	Symbol         string `msgpack:"s" json:"symbol"`
	Quantity       int64  `msgpack:"q" json:"quantity"`
	InvestedValue  string `msgpack:"iv" json:"invested_value"`
	LastPrice      string `msgpack:"lp" json:"last_price"`
	CurrentValue   string `msgpack:"cv" json:"current_value"`
	PnL            string `msgpack:"pnl" json:"pnl"`
	PriceAvailable bool   `msgpack:"ok" json:"price_available"`
}

// TrendPoint is one sample of the PnL series.
type TrendPoint struct {
	RecordedAt      time.Time `json:"recorded_at"`
	TotalInvestment float64   `json:"total_investment"`
	TotalPnL        float64   `json:"total_pnl"`
}

// Trend summarises how a portfolio's total PnL moved over recent cycles.
type Trend struct {
	Portfolio   string       `json:"portfolio"`
	Points      []TrendPoint `json:"points"`
	Count       int          `json:"count"`
	Mean        float64      `json:"mean"`
	StdDev      float64      `json:"std_dev"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Change      float64      `json:"change"`
	MaxDrawdown float64      `json:"max_drawdown"`
	Window      int          `json:"window"`
	// SMA[i] is the moving average ending at Points[i+Window-1].
	SMA       []float64 `json:"sma"`
	LatestSMA *float64  `json:"latest_sma,omitempty"`
}
