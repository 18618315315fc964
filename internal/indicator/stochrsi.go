package indicator

import "trading-analytics/internal/model"

// StochRSIResult holds the smoothed %K and %D lines.
type StochRSIResult struct {
	K model.Series `json:"k"`
	D model.Series `json:"d"`
}

// StochasticRSI applies the stochastic oscillator to RSI values:
// raw %K = (RSI - min) / (max - min) * 100 over the trailing stochPeriod RSI
// window (50 when max == min), %K = SMA(raw, kSmooth), %D = SMA(%K, dSmooth).
// Undefined RSI values keep every window that contains them undefined.
func StochasticRSI(values []float64, rsiPeriod, stochPeriod, kSmooth, dSmooth int) StochRSIResult {
	n := len(values)
	rsi := RSI(values, rsiPeriod)
	raw := model.NewSeries(n)

	for i := stochPeriod - 1; i < n && stochPeriod > 0; i++ {
		lo, hi := rsi[i], rsi[i]
		complete := true
		for j := i - stochPeriod + 1; j <= i; j++ {
			if !rsi.Defined(j) {
				complete = false
				break
			}
			if rsi[j] < lo {
				lo = rsi[j]
			}
			if rsi[j] > hi {
				hi = rsi[j]
			}
		}
		if !complete {
			continue
		}
		if hi == lo {
			raw[i] = 50
			continue
		}
		raw[i] = (rsi[i] - lo) / (hi - lo) * 100
	}

	k := SMA(raw, kSmooth)
	d := SMA(k, dSmooth)
	return StochRSIResult{K: k, D: d}
}

// StochasticRSIDefault uses 14/14/3/3.
func StochasticRSIDefault(values []float64) StochRSIResult {
	return StochasticRSI(values, DefaultStochRSIPeriod, DefaultStochPeriod, DefaultStochKSmooth, DefaultStochDSmooth)
}
