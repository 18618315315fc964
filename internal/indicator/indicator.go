// Package indicator provides technical indicator calculations over bar series.
//
// Every function is a pure transform: it never mutates its input, holds no
// state between calls and returns derived series index-aligned with the
// input. Positions before an indicator's warm-up window are undefined (NaN,
// see model.Series) instead of being omitted, so len(output) == len(input).
package indicator

import (
	"math"

	"trading-analytics/internal/model"
)

// Default parameters.
const (
	DefaultRSIPeriod = 14

	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9

	DefaultBBPeriod     = 20
	DefaultBBMultiplier = 2.0

	DefaultATRPeriod = 14

	DefaultStochRSIPeriod = 14
	DefaultStochPeriod    = 14
	DefaultStochKSmooth   = 3
	DefaultStochDSmooth   = 3

	DefaultTenkanPeriod  = 9
	DefaultKijunPeriod   = 26
	DefaultSenkouBPeriod = 52
	DefaultDisplacement  = 26
)

// Closes extracts close prices from bars.
func Closes(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}

// windowMean sums w oldest to newest starting from zero and divides by its
// length. Any undefined element makes the mean undefined.
func windowMean(w []float64) float64 {
	sum := 0.0
	for _, v := range w {
		if !model.IsDefined(v) {
			return math.NaN()
		}
		sum += v
	}
	return sum / float64(len(w))
}

// windowHighLow returns the highest high and lowest low of bars.
func windowHighLow(bars []model.Bar) (hh, ll float64) {
	hh = bars[0].High
	ll = bars[0].Low
	for i := 1; i < len(bars); i++ {
		if bars[i].High > hh {
			hh = bars[i].High
		}
		if bars[i].Low < ll {
			ll = bars[i].Low
		}
	}
	return hh, ll
}
