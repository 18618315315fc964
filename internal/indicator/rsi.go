package indicator

import "trading-analytics/internal/model"

// RSI calculates the Relative Strength Index from the simple mean of the
// trailing period gains and losses (not Wilder's recursive smoothing).
// Defined from index period onward. When the window holds no losses the RSI
// is 100, never NaN or Inf.
func RSI(values []float64, period int) model.Series {
	out := model.NewSeries(len(values))
	if period <= 0 {
		return out
	}
	p := float64(period)
	for i := period; i < len(values); i++ {
		gains, losses := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			delta := values[j] - values[j-1]
			if delta > 0 {
				gains += delta
			} else {
				losses -= delta
			}
		}
		avgGain := gains / p
		avgLoss := losses / p
		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100.0 - (100.0 / (1.0 + rs))
	}
	return out
}
