package indicator

import (
	"math"

	"trading-analytics/internal/model"
)

// BollingerResult holds the three band lines.
type BollingerResult struct {
	Upper  model.Series `json:"upper"`
	Middle model.Series `json:"middle"`
	Lower  model.Series `json:"lower"`
}

// BollingerBands calculates SMA(period) ± multiplier × the population
// standard deviation (divided by period) of the trailing window.
func BollingerBands(values []float64, period int, multiplier float64) BollingerResult {
	n := len(values)
	middle := SMA(values, period)
	upper := model.NewSeries(n)
	lower := model.NewSeries(n)

	for i := period - 1; i < n && period > 0; i++ {
		if !middle.Defined(i) {
			continue
		}
		mean := middle[i]
		sumSq := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := values[j] - mean
			sumSq += diff * diff
		}
		stdDev := math.Sqrt(sumSq / float64(period))
		upper[i] = mean + multiplier*stdDev
		lower[i] = mean - multiplier*stdDev
	}

	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
}
