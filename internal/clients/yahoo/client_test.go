package yahoo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/wnjoon/go-yfinance/pkg/models"
)

func newTestClient(h historyFunc) *Client {
	c := NewClient(zerolog.Nop())
	c.history = h
	return c
}

func TestFetchLastPrice_UsesLastBarClose(t *testing.T) {
	var requested string
	c := newTestClient(func(symbol string) ([]models.Bar, error) {
		requested = symbol
		return []models.Bar{
			{Open: 89.5, Close: 90.10},
			{Open: 90.2, Close: 92.336},
		}, nil
	})

	r := c.FetchLastPrice(context.Background(), " gail.ns ")

	assert.Equal(t, "GAIL.NS", requested)
	assert.True(t, r.Available)
	assert.NoError(t, r.Err)
	assert.Equal(t, "92.34", r.Price.StringFixed(2))
}

func TestFetchLastPrice_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		history historyFunc
	}{
		{"provider error", func(string) ([]models.Bar, error) { return nil, errors.New("404 Not Found") }},
		{"empty result", func(string) ([]models.Bar, error) { return nil, nil }},
		{"nan close", func(string) ([]models.Bar, error) { return []models.Bar{{Close: math.NaN()}}, nil }},
		{"negative close", func(string) ([]models.Bar, error) { return []models.Bar{{Close: -1}}, nil }},
		{"provider panic", func(string) ([]models.Bar, error) { panic("index out of range") }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestClient(tc.history).FetchLastPrice(context.Background(), "NOPE.NS")

			assert.False(t, r.Available)
			assert.True(t, r.Price.IsZero())
			assert.Error(t, r.Err)
		})
	}
}

func TestFetchLastPrice_EmptySymbol(t *testing.T) {
	called := false
	c := newTestClient(func(string) ([]models.Bar, error) {
		called = true
		return nil, nil
	})

	r := c.FetchLastPrice(context.Background(), "   ")

	assert.False(t, r.Available)
	assert.False(t, called)
}

func TestFetchLastPrice_CancelledContext(t *testing.T) {
	called := false
	c := newTestClient(func(string) ([]models.Bar, error) {
		called = true
		return []models.Bar{{Close: 1}}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := c.FetchLastPrice(ctx, "X")

	assert.False(t, r.Available)
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.False(t, called)
}

func TestFetchLastPrice_GenuineZeroIsAvailable(t *testing.T) {
	c := newTestClient(func(string) ([]models.Bar, error) {
		return []models.Bar{{Close: 0}}, nil
	})

	r := c.FetchLastPrice(context.Background(), "DELISTED.NS")

	assert.True(t, r.Available)
	assert.True(t, r.Price.IsZero())
}
