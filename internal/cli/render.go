package cli

import (
	"fmt"
	"strings"

	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
	"github.com/ltpboard/ltpboard/internal/modules/history"
	"github.com/ltpboard/ltpboard/internal/reliability"
)

// ViewMarkdown renders the dashboard tables and PnL chart data as markdown.
func ViewMarkdown(v dashboard.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Dashboard\n\n_%s_\n\n", v.LastUpdated)

	for _, t := range v.Tables {
		fmt.Fprintf(&b, "## %s\n\n", t.Title)

		headers := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			headers[i] = c.Name
		}
		writeRow(&b, headers)
		writeAlignment(&b, len(headers))

		for _, r := range t.Records {
			stock := r.Stock
			if !r.PriceAvailable {
				stock += " (no price)"
			}
			writeRow(&b, []string{stock, r.InvestedValue, r.AvgBuyPrice, r.Quantity, r.LTP, r.CurrentValue, r.PnL})
		}

		fmt.Fprintf(&b, "\n**Total Investment:** %s  \n**Total PnL:** %s\n\n",
			t.Summary.TotalInvestmentText, t.Summary.TotalPnLText)
	}

	if len(v.Chart.Series) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", v.Chart.Title)
		writeRow(&b, []string{"Portfolio", "Stock", "PnL"})
		writeAlignment(&b, 3)
		for _, s := range v.Chart.Series {
			for _, p := range s.Points {
				writeRow(&b, []string{s.Name, p.Symbol, fmt.Sprintf("%.2f", p.PnL)})
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// PortfoliosMarkdown renders the configured holdings.
func PortfoliosMarkdown(portfolios []domain.Portfolio) string {
	var b strings.Builder
	for _, p := range portfolios {
		fmt.Fprintf(&b, "## %s (`%s`)\n\n", p.Title, p.Name)
		writeRow(&b, []string{"Stock", "Quantity", "Invested Value", "Avg Buy Price"})
		writeAlignment(&b, 4)
		for _, h := range p.Holdings {
			writeRow(&b, []string{
				h.Symbol,
				fmt.Sprintf("%d", h.Quantity),
				h.InvestedValue.StringFixed(domain.MoneyPlaces),
				h.AvgBuyPrice.StringFixed(domain.MoneyPlaces),
			})
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TrendMarkdown renders PnL statistics of one portfolio.
func TrendMarkdown(t *history.Trend) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# PnL trend: %s\n\n", t.Portfolio)

	if t.Count == 0 {
		b.WriteString("No history recorded yet.\n")
		return b.String()
	}

	first, last := t.Points[0].RecordedAt, t.Points[len(t.Points)-1].RecordedAt
	fmt.Fprintf(&b, "%d entries from %s to %s\n\n", t.Count,
		first.Format("2006-01-02 15:04:05"), last.Format("2006-01-02 15:04:05"))

	writeRow(&b, []string{"Statistic", "Value"})
	writeAlignment(&b, 2)
	writeRow(&b, []string{"Latest PnL", fmt.Sprintf("%.2f", t.Points[len(t.Points)-1].TotalPnL)})
	writeRow(&b, []string{"Change", fmt.Sprintf("%.2f", t.Change)})
	writeRow(&b, []string{"Mean", fmt.Sprintf("%.2f", t.Mean)})
	writeRow(&b, []string{"Std Dev", fmt.Sprintf("%.2f", t.StdDev)})
	writeRow(&b, []string{"Min", fmt.Sprintf("%.2f", t.Min)})
	writeRow(&b, []string{"Max", fmt.Sprintf("%.2f", t.Max)})
	writeRow(&b, []string{"Max Drawdown", fmt.Sprintf("%.2f", t.MaxDrawdown)})
	if t.LatestSMA != nil {
		writeRow(&b, []string{fmt.Sprintf("SMA(%d)", t.Window), fmt.Sprintf("%.2f", *t.LatestSMA)})
	} else {
		writeRow(&b, []string{fmt.Sprintf("SMA(%d)", t.Window), "not enough entries"})
	}
	b.WriteString("\n")

	return b.String()
}

// BackupsMarkdown renders the archives kept in the bucket.
func BackupsMarkdown(backups []reliability.BackupInfo) string {
	var b strings.Builder
	b.WriteString("# Backups\n\n")
	if len(backups) == 0 {
		b.WriteString("No backups found.\n")
		return b.String()
	}

	writeRow(&b, []string{"Archive", "Created", "Size (KB)", "Age (h)"})
	writeAlignment(&b, 4)
	for _, bk := range backups {
		writeRow(&b, []string{
			bk.Filename,
			bk.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.1f", float64(bk.SizeBytes)/1024),
			fmt.Sprintf("%d", bk.AgeHours),
		})
	}
	b.WriteString("\n")
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func writeAlignment(b *strings.Builder, n int) {
	b.WriteString("|")
	for i := 0; i < n; i++ {
		if i == 0 {
			b.WriteString(" :--- |")
		} else {
			b.WriteString(" ---: |")
		}
	}
	b.WriteString("\n")
}
