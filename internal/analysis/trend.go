package analysis

import (
	"math"

	"trading-analytics/internal/model"
)

// Direction is the overall trend classification.
type Direction string

const (
	Uptrend   Direction = "bullish"
	Downtrend Direction = "bearish"
	Sideways  Direction = "sideways"
)

// Trend is the least-squares read of closes against bar index.
type Trend struct {
	Direction       Direction `json:"direction"`
	Strength        int       `json:"strength"` // 0..100
	Slope           float64   `json:"slope"`
	NormalizedSlope float64   `json:"normalized_slope"`
	R2              float64   `json:"r2"`
}

// ClassifyTrend fits closes against index over the whole series. The slope is
// normalised to slope*n/priceRange; below 0.1 in magnitude the series is
// sideways with strength R2*50, otherwise bullish/bearish by sign with
// strength R2*100 (rounded, clamped to 0..100).
func ClassifyTrend(bars []model.Bar) Trend {
	n := len(bars)
	if n < 2 {
		return Trend{Direction: Sideways}
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	lo, hi := bars[0].Close, bars[0].Close
	for i := range bars {
		xs[i] = float64(i)
		ys[i] = bars[i].Close
		lo = math.Min(lo, ys[i])
		hi = math.Max(hi, ys[i])
	}
	fit := LinearRegression(xs, ys)

	var normalized float64
	if priceRange := hi - lo; priceRange > 0 {
		normalized = fit.Slope * float64(n) / priceRange
	}

	t := Trend{Slope: fit.Slope, NormalizedSlope: normalized, R2: fit.R2}
	switch {
	case math.Abs(normalized) < 0.1:
		t.Direction = Sideways
		t.Strength = clampInt(roundHalfUp(fit.R2*50), 0, 100)
	case normalized > 0:
		t.Direction = Uptrend
		t.Strength = clampInt(roundHalfUp(fit.R2*100), 0, 100)
	default:
		t.Direction = Downtrend
		t.Strength = clampInt(roundHalfUp(fit.R2*100), 0, 100)
	}
	return t
}

// roundHalfUp rounds ties toward +Inf, so -12.5 becomes -12 and 12.5 becomes 13.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
