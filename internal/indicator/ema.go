package indicator

import "trading-analytics/internal/model"

// EMA calculates the Exponential Moving Average of values.
//
// The seed at index period-1 is the SMA of the first period values (exactly
// equal to SMA(values, period)[period-1]); after that
// ema[i] = (x[i] - ema[i-1]) * 2/(period+1) + ema[i-1].
func EMA(values []float64, period int) model.Series {
	out := model.NewSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	multiplier := 2.0 / float64(period+1)

	prev := windowMean(values[:period])
	out[period-1] = prev
	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*multiplier + prev
		out[i] = prev
	}
	return out
}
