package indicator

import (
	"math"
	"strconv"

	"trading-analytics/internal/model"
)

// Retracement and extension ratios.
var (
	RetracementRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}
	ExtensionRatios   = []float64{1.272, 1.414, 1.618, 2, 2.618}
)

// FibLevel is one Fibonacci price level.
type FibLevel struct {
	Ratio float64 `json:"ratio"`
	Label string  `json:"label"` // e.g. "61.8%"
	Price float64 `json:"price"`
}

// Fibonacci holds retracement and extension levels for a swing.
type Fibonacci struct {
	High         float64    `json:"high"`
	Low          float64    `json:"low"`
	Retracements []FibLevel `json:"retracements"`
	Extensions   []FibLevel `json:"extensions"`
}

// FibonacciLevels computes levels from the series-wide highest high and
// lowest low: retracement = high - diff*ratio, extension = low + diff*ratio.
func FibonacciLevels(bars []model.Bar) (Fibonacci, error) {
	if len(bars) == 0 {
		return Fibonacci{}, model.ErrEmptySeries
	}
	high, low := windowHighLow(bars)
	return FibonacciFromRange(high, low), nil
}

// FibonacciFromRange computes levels for an explicit high/low pair.
func FibonacciFromRange(high, low float64) Fibonacci {
	diff := high - low
	fib := Fibonacci{
		High:         high,
		Low:          low,
		Retracements: make([]FibLevel, len(RetracementRatios)),
		Extensions:   make([]FibLevel, len(ExtensionRatios)),
	}
	for i, r := range RetracementRatios {
		fib.Retracements[i] = FibLevel{Ratio: r, Label: ratioLabel(r), Price: high - diff*r}
	}
	for i, r := range ExtensionRatios {
		fib.Extensions[i] = FibLevel{Ratio: r, Label: ratioLabel(r), Price: low + diff*r}
	}
	return fib
}

// ratioLabel renders a ratio as a percentage rounded to one decimal ("23.6%").
func ratioLabel(r float64) string {
	return strconv.FormatFloat(math.Round(r*1000)/10, 'f', -1, 64) + "%"
}
