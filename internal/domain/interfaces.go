package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceResult is the outcome of a single last-traded-price lookup.
// A failed lookup is a value, not an error: Available is false, Price is zero
// and Err carries the reason for logging.
type PriceResult struct {
	Symbol    string
	Price     decimal.Decimal
	Available bool
	Err       error
}

// PriceOK builds a successful lookup result with the price rounded to MoneyPlaces.
func PriceOK(symbol string, price decimal.Decimal) PriceResult {
	return PriceResult{Symbol: symbol, Price: RoundMoney(price), Available: true}
}

// PriceUnavailable builds a failed lookup result.
func PriceUnavailable(symbol string, err error) PriceResult {
	return PriceResult{Symbol: symbol, Price: decimal.Zero, Err: err}
}

// PriceFetcher returns the latest traded price for a symbol.
// Implementations never return an error; every failure is reported through
// PriceResult.Available. Calls may block on the network.
type PriceFetcher interface {
	FetchLastPrice(ctx context.Context, symbol string) PriceResult
}

// PriceFetcherFunc adapts a plain function to PriceFetcher.
type PriceFetcherFunc func(ctx context.Context, symbol string) PriceResult

// FetchLastPrice calls f(ctx, symbol).
func (f PriceFetcherFunc) FetchLastPrice(ctx context.Context, symbol string) PriceResult {
	return f(ctx, symbol)
}
