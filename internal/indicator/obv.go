package indicator

import "trading-analytics/internal/model"

// OBV calculates On-Balance Volume: a running sum seeded with the first bar's
// volume, adding volume on an up close and subtracting it on a down close.
// Missing volume counts as 0.
func OBV(bars []model.Bar) model.Series {
	out := model.NewSeries(len(bars))
	if len(bars) == 0 {
		return out
	}
	obv := bars[0].Vol(0)
	out[0] = obv
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Vol(0)
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Vol(0)
		}
		out[i] = obv
	}
	return out
}
