// Package static serves prices from a fixed table, for offline and demo runs.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ltpboard/ltpboard/internal/domain"
)

// Fetcher implements domain.PriceFetcher over an in-memory price table.
// Symbols missing from the table are unavailable.
type Fetcher struct {
	prices map[string]decimal.Decimal
}

// NewFetcher creates a fetcher from a symbol -> price map.
func NewFetcher(prices map[string]decimal.Decimal) *Fetcher {
	normalized := make(map[string]decimal.Decimal, len(prices))
	for symbol, price := range prices {
		normalized[strings.ToUpper(strings.TrimSpace(symbol))] = price
	}
	return &Fetcher{prices: normalized}
}

// Load reads a JSON object of symbol -> price, e.g. {"GAIL.NS": 201.35}.
func Load(path string) (*Fetcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read static prices: %w", err)
	}

	var prices map[string]decimal.Decimal
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, fmt.Errorf("failed to parse static prices %s: %w", path, err)
	}
	return NewFetcher(prices), nil
}

// FetchLastPrice returns the configured price for symbol.
func (f *Fetcher) FetchLastPrice(ctx context.Context, symbol string) domain.PriceResult {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := ctx.Err(); err != nil {
		return domain.PriceUnavailable(symbol, err)
	}
	price, ok := f.prices[symbol]
	if !ok {
		return domain.PriceUnavailable(symbol, fmt.Errorf("symbol %s not in static price table", symbol))
	}
	return domain.PriceOK(symbol, price)
}
