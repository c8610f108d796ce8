package formulas

// MaxDrawdown returns the largest drop from a running peak to a later value,
// in the units of the series. The series may go negative (PnL does), so the
// result is an absolute amount rather than a percentage. It is 0 when the
// series never falls below an earlier value.
func MaxDrawdown(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	peak := data[0]
	maxDD := 0.0
	for _, v := range data[1:] {
		if v > peak {
			peak = v
			continue
		}
		if dd := peak - v; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
