package indicator

import (
	"math"

	"trading-analytics/internal/model"
)

// TrueRange returns max(H-L, |H-prevClose|, |L-prevClose|) per bar; the first
// bar has no previous close and uses H-L.
func TrueRange(bars []model.Bar) []float64 {
	trs := make([]float64, len(bars))
	for i := range bars {
		hl := bars[i].High - bars[i].Low
		if i == 0 {
			trs[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		hc := math.Abs(bars[i].High - prevClose)
		lc := math.Abs(bars[i].Low - prevClose)
		trs[i] = math.Max(hl, math.Max(hc, lc))
	}
	return trs
}

// ATR calculates the Average True Range. The first value (index period-1) is
// the simple mean of the first period true ranges, then Wilder smoothing:
// atr[i] = (atr[i-1]*(period-1) + tr[i]) / period.
func ATR(bars []model.Bar, period int) model.Series {
	out := model.NewSeries(len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}
	trs := TrueRange(bars)

	out[period-1] = windowMean(trs[:period])
	p := float64(period)
	for i := period; i < len(bars); i++ {
		out[i] = (out[i-1]*(p-1) + trs[i]) / p
	}
	return out
}
