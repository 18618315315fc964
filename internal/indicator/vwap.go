package indicator

import "trading-analytics/internal/model"

// VWAP calculates the Volume Weighted Average Price anchored at the first bar
// (it never resets). Typical price is (H+L+C)/3; a bar without volume counts
// as volume 1. Positions where cumulative volume is still zero are undefined.
func VWAP(bars []model.Bar) model.Series {
	out := model.NewSeries(len(bars))
	cumulativeTPV := 0.0
	cumulativeVol := 0.0
	for i := range bars {
		b := &bars[i]
		typicalPrice := (b.High + b.Low + b.Close) / 3.0
		vol := b.Vol(1)
		cumulativeTPV += typicalPrice * vol
		cumulativeVol += vol
		if cumulativeVol > 0 {
			out[i] = cumulativeTPV / cumulativeVol
		}
	}
	return out
}
