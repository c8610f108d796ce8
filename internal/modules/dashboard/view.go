// Package dashboard turns computed portfolio metrics into the data the
// single-page dashboard renders: one table per portfolio and a grouped bar
// chart of per-holding PnL.
package dashboard

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/ltpboard/ltpboard/internal/domain"
)

const (
	// ChartTitle is the heading of the grouped PnL bar chart.
	ChartTitle = "PnL Change Over Time"

	// LastUpdatedLayout formats the refresh timestamp shown under the tables.
	LastUpdatedLayout = "2006-01-02 15:04:05"

	// PnL classes mark a summary as gain (non-negative) or loss.
	PnLClassPositive = "positive"
	PnLClassNegative = "negative"

	colorGreen = "green"
	colorRed   = "red"
	colorBlue  = "blue"
)

// Column is one column of a holdings table.
type Column struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Columns is the fixed column schema shared by every portfolio table.
var Columns = []Column{
	{Name: "Stock", ID: "stock"},
	{Name: "Invested Value", ID: "invested_value"},
	{Name: "Avg Buy Price", ID: "avg_buy_price"},
	{Name: "Quantity", ID: "quantity"},
	{Name: "LTP", ID: "ltp"},
	{Name: "Current Value", ID: "current_value"},
	{Name: "PnL", ID: "pnl"},
}

// Record is one table row. Every value is pre-formatted for display.
type Record struct {
	Stock         string `json:"stock"`
	InvestedValue string `json:"invested_value"`
	AvgBuyPrice   string `json:"avg_buy_price"`
	Quantity      string `json:"quantity"`
	LTP           string `json:"ltp"`
	CurrentValue  string `json:"current_value"`
	PnL           string `json:"pnl"`
	// PnLClass is "positive", "negative" or empty for a flat position.
	PnLClass       string `json:"pnl_class"`
	PriceAvailable bool   `json:"price_available"`
}

// Summary holds the portfolio totals, raw and display-formatted.
type Summary struct {
	TotalInvestment     decimal.Decimal `json:"total_investment"`
	TotalPnL            decimal.Decimal `json:"total_pnl"`
	TotalInvestmentText string          `json:"total_investment_text"`
	TotalPnLText        string          `json:"total_pnl_text"`
	PnLPositive         bool            `json:"pnl_positive"`
}

// Table is the rendered form of one portfolio.
type Table struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Columns []Column `json:"columns"`
	Records []Record `json:"records"`
	Summary Summary  `json:"summary"`
}

// Point is one bar of the chart.
type Point struct {
	Symbol string  `json:"symbol"`
	PnL    float64 `json:"pnl"`
}

// Series is the bar group of one portfolio.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Chart is the grouped bar chart dataset.
type Chart struct {
	Title  string   `json:"title"`
	Series []Series `json:"series"`
}

// View is everything the dashboard shows for one refresh cycle.
type View struct {
	CycleID     string    `json:"cycle_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	LastUpdated string    `json:"last_updated"`
	Tables      []Table   `json:"tables"`
	Chart       Chart     `json:"chart"`
}

// IsZero reports whether no cycle has produced this view yet.
func (v View) IsZero() bool {
	return v.GeneratedAt.IsZero()
}

// Table returns the table of the named portfolio.
func (v View) Table(name string) (Table, bool) {
	for _, t := range v.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// BuildView renders computed metrics, in the given order, into a View.
func BuildView(metrics []domain.PortfolioMetrics, now time.Time, currency string) View {
	v := View{
		GeneratedAt: now,
		LastUpdated: "Last Updated: " + now.Format(LastUpdatedLayout),
		Tables:      make([]Table, 0, len(metrics)),
		Chart: Chart{
			Title:  ChartTitle,
			Series: make([]Series, 0, len(metrics)),
		},
	}

	for i, pm := range metrics {
		v.Tables = append(v.Tables, buildTable(pm, currency))
		v.Chart.Series = append(v.Chart.Series, buildSeries(i, pm))
	}

	return v
}

func buildTable(pm domain.PortfolioMetrics, currency string) Table {
	records := make([]Record, 0, len(pm.Snapshots))
	for _, s := range pm.Snapshots {
		records = append(records, Record{
			Stock:          s.Symbol,
			InvestedValue:  fixed(s.InvestedValue),
			AvgBuyPrice:    fixed(s.AvgBuyPrice),
			Quantity:       decimal.NewFromInt(s.Quantity).String(),
			LTP:            fixed(s.LastPrice),
			CurrentValue:   fixed(s.CurrentValue),
			PnL:            fixed(s.PnL),
			PnLClass:       PnLClass(s.PnL),
			PriceAvailable: s.PriceAvailable,
		})
	}

	return Table{
		Name:    pm.Name,
		Title:   pm.Title,
		Columns: Columns,
		Records: records,
		Summary: Summary{
			TotalInvestment:     pm.Summary.TotalInvestment,
			TotalPnL:            pm.Summary.TotalPnL,
			TotalInvestmentText: "Total Investment: " + FormatMoney(pm.Summary.TotalInvestment, currency),
			TotalPnLText:        "Total PnL: " + FormatMoney(pm.Summary.TotalPnL, currency),
			PnLPositive:         !pm.Summary.TotalPnL.IsNegative(),
		},
	}
}

// buildSeries colours the first portfolio by the sign of its total PnL and
// every other portfolio blue.
func buildSeries(index int, pm domain.PortfolioMetrics) Series {
	color := colorBlue
	if index == 0 {
		color = colorRed
		if pm.Summary.TotalPnL.IsPositive() {
			color = colorGreen
		}
	}

	points := make([]Point, 0, len(pm.Snapshots))
	for _, s := range pm.Snapshots {
		points = append(points, Point{Symbol: s.Symbol, PnL: s.PnL.InexactFloat64()})
	}

	return Series{Name: pm.Title, Color: color, Points: points}
}

// PnLClass maps a PnL figure to the CSS class used for row styling.
func PnLClass(pnl decimal.Decimal) string {
	switch pnl.Sign() {
	case 1:
		return PnLClassPositive
	case -1:
		return PnLClassNegative
	default:
		return ""
	}
}

// FormatMoney renders an amount with the currency symbol and thousands
// separators, e.g. ₹1,234.50. Unknown currency codes fall back to the code
// followed by the plain amount.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return currency + " " + fixed(amount)
	}

	factor := decimal.New(1, int32(cur.Fraction))
	minor := amount.Mul(factor).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}
