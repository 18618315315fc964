package analysis

// Trendline is a least-squares line through recent pivots.
type Trendline struct {
	Side       Side    `json:"side"` // resistance from pivot highs, support from pivot lows
	Fit        Fit     `json:"fit"`
	Points     int     `json:"points"`
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	StartPrice float64 `json:"start_price"`
	EndPrice   float64 `json:"end_price"`
}

// FitTrendlines fits one resistance line through the most recent maxPoints
// pivot highs and one support line through the pivot lows. A line is kept
// only when its R2 exceeds minR2.
func FitTrendlines(highs, lows []Pivot, maxPoints int, minR2 float64) []Trendline {
	lines := make([]Trendline, 0, 2)
	if tl, ok := fitPivots(highs, Resistance, maxPoints, minR2); ok {
		lines = append(lines, tl)
	}
	if tl, ok := fitPivots(lows, Support, maxPoints, minR2); ok {
		lines = append(lines, tl)
	}
	return lines
}

func fitPivots(pivots []Pivot, side Side, maxPoints int, minR2 float64) (Trendline, bool) {
	if maxPoints > 0 && len(pivots) > maxPoints {
		pivots = pivots[len(pivots)-maxPoints:]
	}
	if len(pivots) < 2 {
		return Trendline{}, false
	}
	xs := make([]float64, len(pivots))
	ys := make([]float64, len(pivots))
	for i, p := range pivots {
		xs[i] = float64(p.Index)
		ys[i] = p.Price
	}
	fit := LinearRegression(xs, ys)
	if fit.R2 <= minR2 {
		return Trendline{}, false
	}
	first, last := pivots[0], pivots[len(pivots)-1]
	return Trendline{
		Side:       side,
		Fit:        fit,
		Points:     len(pivots),
		StartIndex: first.Index,
		EndIndex:   last.Index,
		StartPrice: fit.At(float64(first.Index)),
		EndPrice:   fit.At(float64(last.Index)),
	}, true
}
