// Package yahoo looks up last traded prices on Yahoo Finance.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/ltpboard/ltpboard/internal/domain"
)

// ErrNoData is reported when Yahoo returns no usable bar for a symbol.
var ErrNoData = errors.New("no price data")

// historyFunc loads daily bars for a Yahoo symbol.
type historyFunc func(symbol string) ([]models.Bar, error)

// Client implements domain.PriceFetcher using the go-yfinance library.
// Every call is a fresh request: no retries and no caching.
type Client struct {
	history historyFunc
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance price client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		history: fetchDailyHistory,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// fetchDailyHistory returns the bars of the latest trading day, the same
// window as a "1d" history request in the Yahoo web UI.
func fetchDailyHistory(symbol string) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:   "1d",
		Interval: "1d",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return bars, nil
}

// FetchLastPrice returns the most recent daily close for symbol, rounded to
// two decimals. Any failure yields an unavailable result instead of an error.
func (c *Client) FetchLastPrice(ctx context.Context, symbol string) domain.PriceResult {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.PriceUnavailable(symbol, errors.New("empty symbol"))
	}
	if err := ctx.Err(); err != nil {
		return domain.PriceUnavailable(symbol, err)
	}

	price, err := c.lastClose(symbol)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Price unavailable")
		return domain.PriceUnavailable(symbol, err)
	}

	c.log.Debug().Str("symbol", symbol).Str("price", price.StringFixed(domain.MoneyPlaces)).Msg("Price fetched")
	return domain.PriceOK(symbol, price)
}

func (c *Client) lastClose(symbol string) (price decimal.Decimal, err error) {
	// A provider panic is one more way for the lookup to fail.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("provider panic: %v", p)
		}
	}()

	bars, err := c.history(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if len(bars) == 0 {
		return decimal.Zero, ErrNoData
	}

	last := bars[len(bars)-1].Close
	if math.IsNaN(last) || math.IsInf(last, 0) || last < 0 {
		return decimal.Zero, fmt.Errorf("%w: invalid close %v", ErrNoData, last)
	}
	return decimal.NewFromFloat(last), nil
}
