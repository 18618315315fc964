package analysis

import (
	"fmt"
	"strings"

	"trading-analytics/internal/model"
)

// Summarize writes a short human-readable description of an analysis.
func Summarize(a Analysis) string {
	var b strings.Builder

	switch a.Trend.Direction {
	case Sideways:
		fmt.Fprintf(&b, "Price is moving sideways (strength %d/100).", a.Trend.Strength)
	default:
		fmt.Fprintf(&b, "Price is in a %s trend (strength %d/100).", a.Trend.Direction, a.Trend.Strength)
	}

	var support, resistance *Level
	for i := range a.Levels {
		l := &a.Levels[i]
		if l.Side == Support && support == nil {
			support = l
		}
		if l.Side == Resistance && resistance == nil {
			resistance = l
		}
	}
	if support != nil {
		fmt.Fprintf(&b, " Key support near %.2f (%d touches).", support.Price, support.Touches)
	}
	if resistance != nil {
		fmt.Fprintf(&b, " Key resistance near %.2f (%d touches).", resistance.Price, resistance.Touches)
	}

	if len(a.Patterns) > 0 {
		names := make([]string, len(a.Patterns))
		for i, p := range a.Patterns {
			names[i] = fmt.Sprintf("%s (%s, %.0f%%)", p.Name, p.Bias, p.Confidence)
		}
		fmt.Fprintf(&b, " Patterns: %s.", strings.Join(names, ", "))
	}

	if a.Indicators != nil {
		rsi := float64(a.Indicators.RSI)
		if model.IsDefined(rsi) {
			zone := "neutral"
			switch {
			case rsi >= 70:
				zone = "overbought"
			case rsi <= 30:
				zone = "oversold"
			}
			fmt.Fprintf(&b, " RSI %.1f is %s.", rsi, zone)
		}
	}

	fmt.Fprintf(&b, " Sentiment %d → %s.", a.Score, a.Recommendation)
	return b.String()
}
