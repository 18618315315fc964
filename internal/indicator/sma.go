package indicator

import "trading-analytics/internal/model"

// SMA calculates the Simple Moving Average of values over period.
// Each defined position is a full recompute of its trailing window, so the
// result does not accumulate rounding drift from a running sum.
func SMA(values []float64, period int) model.Series {
	out := model.NewSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out[i] = windowMean(values[i-period+1 : i+1])
	}
	return out
}
