package indicator

import (
	"math"

	"trading-analytics/internal/model"
)

// HeikinAshi converts bars to Heikin-Ashi candles. Timestamps and volume are
// carried over unchanged.
//
//	haClose = (O+H+L+C)/4
//	haOpen  = (prevHaOpen+prevHaClose)/2, first bar (O+C)/2
//	haHigh  = max(H, haOpen, haClose), haLow = min(L, haOpen, haClose)
func HeikinAshi(bars []model.Bar) []model.Bar {
	out := make([]model.Bar, len(bars))
	for i := range bars {
		b := &bars[i]
		haClose := (b.Open + b.High + b.Low + b.Close) / 4
		var haOpen float64
		if i == 0 {
			haOpen = (b.Open + b.Close) / 2
		} else {
			haOpen = (out[i-1].Open + out[i-1].Close) / 2
		}
		out[i] = model.Bar{
			TS:    b.TS,
			Open:  haOpen,
			High:  math.Max(b.High, math.Max(haOpen, haClose)),
			Low:   math.Min(b.Low, math.Min(haOpen, haClose)),
			Close: haClose,
		}
		if b.Volume != nil {
			v := *b.Volume
			out[i].Volume = &v
		}
	}
	return out
}
