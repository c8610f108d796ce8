package portfolio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/ltpboard/ltpboard/internal/domain"
)

// portfoliosFile is the on-disk layout read by LoadPortfolios.
type portfoliosFile struct {
	Portfolios []domain.Portfolio `json:"portfolios"`
}

// LoadPortfolios reads the portfolio configuration from a JSON file.
// An empty path returns DefaultPortfolios. Holdings are taken as written:
// zero or negative quantities, duplicate symbols and empty portfolios are
// all accepted.
func LoadPortfolios(path string) ([]domain.Portfolio, error) {
	if path == "" {
		return DefaultPortfolios(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolios file: %w", err)
	}

	var f portfoliosFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse portfolios file: %w", err)
	}
	if len(f.Portfolios) == 0 {
		return nil, fmt.Errorf("portfolios file %s defines no portfolios", path)
	}

	for i, p := range f.Portfolios {
		if p.Name == "" {
			return nil, fmt.Errorf("portfolio %d has no name", i)
		}
		if p.Title == "" {
			f.Portfolios[i].Title = p.Name
		}
	}

	return f.Portfolios, nil
}

// FindPortfolio returns the portfolio with the given name.
func FindPortfolio(portfolios []domain.Portfolio, name string) (domain.Portfolio, bool) {
	for _, p := range portfolios {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Portfolio{}, false
}

// DefaultPortfolios returns the two built-in portfolios.
func DefaultPortfolios() []domain.Portfolio {
	return []domain.Portfolio{
		{
			Name:  "bro",
			Title: "Bro's Portfolio",
			Holdings: []domain.Holding{
				holding("ARCHIES.NS", 75, "1978.95", "26.39"),
				holding("BAJAJFINSV.NS", 5, "9047.70", "1809.54"),
				holding("GEMSI.BO", 10000, "20740.00", "2.07"),
				holding("GTLINFRA.NS", 7500, "17865.00", "2.38"),
				holding("IDFCFIRSTB.NS", 100, "9256.20", "92.56"),
				holding("INVENTURE.NS", 300, "2056.80", "6.86"),
				holding("JPPOWER.NS", 250, "1914.50", "7.66"),
				holding("JMFINANCIL.NS", 75, "8414.22", "112.19"),
				holding("NECLIFE.NS", 300, "9804.00", "32.68"),
			},
		},
		{
			Name:  "yuva",
			Title: "Yuva's Portfolio",
			Holdings: []domain.Holding{
				holding("CANBK.NS", 692, "61934.00", "89.50"),
				holding("GAIL.NS", 750, "69250.00", "92.33"),
				holding("IDFCFIRSTB.NS", 182, "11975.60", "65.80"),
				holding("YESBANK.BO", 1000, "20530.00", "20.53"),
			},
		},
	}
}

func holding(symbol string, qty int64, invested, avg string) domain.Holding {
	return domain.Holding{
		Symbol:        symbol,
		Quantity:      qty,
		InvestedValue: decimal.RequireFromString(invested),
		AvgBuyPrice:   decimal.RequireFromString(avg),
	}
}
