package analysis

import (
	"math"
	"sort"

	"trading-analytics/internal/model"
)

// Side is the role a level or trendline plays.
type Side string

const (
	Support    Side = "support"
	Resistance Side = "resistance"
)

// Level is a horizontal support or resistance price.
type Level struct {
	Price    float64 `json:"price"`
	Side     Side    `json:"side"`
	Touches  int     `json:"touches"`
	Strength int     `json:"strength"` // 0..100
}

// DetectSupportResistance clusters pivots into levels. A pivot joins the
// first same-side level within sensitivity × (series high - series low),
// moving that level to the touch-weighted mean; otherwise it starts a new
// level. Levels touched fewer than twice are dropped. Strength is
// min(100, touches*25) and at most maxLevels levels are returned, strongest
// first.
func DetectSupportResistance(bars []model.Bar, highs, lows []Pivot, sensitivity float64, maxLevels int) []Level {
	if len(bars) == 0 {
		return []Level{}
	}
	hi, lo := bars[0].High, bars[0].Low
	for i := 1; i < len(bars); i++ {
		hi = math.Max(hi, bars[i].High)
		lo = math.Min(lo, bars[i].Low)
	}
	tolerance := sensitivity * (hi - lo)

	var levels []Level
	add := func(p Pivot, side Side) {
		for i := range levels {
			l := &levels[i]
			if l.Side != side || math.Abs(l.Price-p.Price) > tolerance {
				continue
			}
			l.Price = (l.Price*float64(l.Touches) + p.Price) / float64(l.Touches+1)
			l.Touches++
			return
		}
		levels = append(levels, Level{Price: p.Price, Side: side, Touches: 1})
	}
	for _, p := range highs {
		add(p, Resistance)
	}
	for _, p := range lows {
		add(p, Support)
	}

	out := make([]Level, 0, len(levels))
	for _, l := range levels {
		if l.Touches < 2 {
			continue
		}
		l.Strength = l.Touches * 25
		if l.Strength > 100 {
			l.Strength = 100
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	if maxLevels > 0 && len(out) > maxLevels {
		out = out[:maxLevels]
	}
	return out
}
