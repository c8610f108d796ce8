package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMASeries calculates the Simple Moving Average over every full window.
// The result has len(data)-period+1 values; result[i] averages
// data[i : i+period]. It returns nil when there is not enough data.
func SMASeries(data []float64, period int) []float64 {
	if period < 1 || len(data) < period {
		return nil
	}
	if period == 1 {
		return append([]float64(nil), data...)
	}

	// talib pads the first period-1 slots with zeros
	sma := talib.Sma(data, period)
	return sma[period-1:]
}

// CalculateSMA returns the latest Simple Moving Average value or nil if
// there is insufficient data
func CalculateSMA(data []float64, period int) *float64 {
	series := SMASeries(data, period)
	if len(series) == 0 {
		return nil
	}

	result := series[len(series)-1]
	if isNaN(result) {
		return nil
	}
	return &result
}

func isNaN(f float64) bool {
	return f != f
}
