package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"12.004", "12"},
		{"12.005", "12.01"},
		{"-50.005", "-50.01"},
		{"1978.95", "1978.95"},
		{"0", "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tc.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestPriceOK_RoundsPrice(t *testing.T) {
	r := PriceOK("GAIL.NS", decimal.NewFromFloat(201.456))

	assert.True(t, r.Available)
	assert.NoError(t, r.Err)
	assert.Equal(t, "201.46", r.Price.StringFixed(2))
}

func TestPriceUnavailable(t *testing.T) {
	cause := errors.New("no data")
	r := PriceUnavailable("YESBANK.BO", cause)

	assert.False(t, r.Available)
	assert.True(t, r.Price.IsZero())
	assert.ErrorIs(t, r.Err, cause)
	assert.Equal(t, "YESBANK.BO", r.Symbol)
}

func TestPriceFetcherFunc(t *testing.T) {
	var f PriceFetcher = PriceFetcherFunc(func(_ context.Context, symbol string) PriceResult {
		return PriceOK(symbol, decimal.NewFromInt(10))
	})

	r := f.FetchLastPrice(context.Background(), "X")
	assert.Equal(t, "X", r.Symbol)
	assert.True(t, r.Price.Equal(decimal.NewFromInt(10)))
}
