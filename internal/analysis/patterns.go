package analysis

import (
	"math"

	"trading-analytics/internal/model"
)

// Bias is the directional reading of a pattern.
type Bias string

const (
	Bullish Bias = "bullish"
	Bearish Bias = "bearish"
	Neutral Bias = "neutral"
)

// Pattern is a recognised chart formation.
type Pattern struct {
	Name       string  `json:"name"`
	Bias       Bias    `json:"bias"`
	Confidence float64 `json:"confidence"` // 0..100
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
}

// DetectPatterns recognises double tops/bottoms and higher/lower highs using
// the default options.
func DetectPatterns(bars []model.Bar, highs, lows []Pivot) []Pattern {
	return detectPatterns(bars, highs, lows, DefaultOptions())
}

func detectPatterns(bars []model.Bar, highs, lows []Pivot, opts Options) []Pattern {
	patterns := []Pattern{}
	if len(bars) < opts.MinBars {
		return patterns
	}

	if p, ok := doublePattern(highs, "Double Top", Bearish, opts); ok {
		patterns = append(patterns, p)
	}
	if p, ok := doublePattern(lows, "Double Bottom", Bullish, opts); ok {
		patterns = append(patterns, p)
	}

	if n := len(highs); n >= 3 {
		a, b, c := highs[n-3], highs[n-2], highs[n-1]
		switch {
		case a.Price < b.Price && b.Price < c.Price:
			patterns = append(patterns, Pattern{Name: "Higher Highs", Bias: Bullish, Confidence: 80, StartIndex: a.Index, EndIndex: c.Index})
		case a.Price > b.Price && b.Price > c.Price:
			patterns = append(patterns, Pattern{Name: "Lower Highs", Bias: Bearish, Confidence: 80, StartIndex: a.Index, EndIndex: c.Index})
		}
	}
	return patterns
}

// doublePattern checks the last two pivots: prices within the tolerance
// (difference relative to the larger price) and far enough apart.
func doublePattern(pivots []Pivot, name string, bias Bias, opts Options) (Pattern, bool) {
	n := len(pivots)
	if n < 2 {
		return Pattern{}, false
	}
	first, second := pivots[n-2], pivots[n-1]
	ratio := math.Abs(second.Price-first.Price) / math.Max(first.Price, second.Price)
	if ratio >= opts.PatternTolerance || second.Index-first.Index < opts.PatternMinSpacing {
		return Pattern{}, false
	}
	return Pattern{
		Name:       name,
		Bias:       bias,
		Confidence: (1 - ratio) * 100,
		StartIndex: first.Index,
		EndIndex:   second.Index,
	}, true
}
