package analysis

import (
	"trading-analytics/internal/model"
)

// Recommendation is the action label derived from the sentiment score.
type Recommendation string

const (
	StrongBuy  Recommendation = "Strong Buy"
	Buy        Recommendation = "Buy"
	Hold       Recommendation = "Hold"
	Sell       Recommendation = "Sell"
	StrongSell Recommendation = "Strong Sell"
)

// SentimentScore combines trend, patterns and recent momentum into an integer
// in [-100, 100]:
//   - the trend adds ±strength/100*50 (zero when sideways)
//   - each pattern adds ±confidence/100*15 by bias
//   - the last-5-bar change ratio (close[n-1]-close[n-5])/close[n-5] adds ×200
//
// The sum is rounded half up before clamping.
func SentimentScore(bars []model.Bar, trend Trend, patterns []Pattern) int {
	score := 0.0
	switch trend.Direction {
	case Uptrend:
		score += float64(trend.Strength) / 100 * 50
	case Downtrend:
		score -= float64(trend.Strength) / 100 * 50
	}

	for _, p := range patterns {
		w := p.Confidence / 100 * 15
		switch p.Bias {
		case Bullish:
			score += w
		case Bearish:
			score -= w
		}
	}

	if n := len(bars); n >= 5 {
		base := bars[n-5].Close
		if base != 0 {
			score += (bars[n-1].Close - base) / base * 200
		}
	}

	return clampInt(roundHalfUp(score), -100, 100)
}

// Recommend maps a score to an action: ≥60 Strong Buy, ≥25 Buy, ≥-25 Hold,
// ≥-60 Sell, otherwise Strong Sell.
func Recommend(score int) Recommendation {
	switch {
	case score >= 60:
		return StrongBuy
	case score >= 25:
		return Buy
	case score >= -25:
		return Hold
	case score >= -60:
		return Sell
	default:
		return StrongSell
	}
}
