// Package analysis infers market structure from a bar series: pivots,
// trendlines, support/resistance levels, chart patterns, trend direction,
// a composite sentiment score and a recommendation.
//
// Analyze is a pure pipeline over a fixed series. Nothing is cached between
// calls and every entity is recomputed from the input.
package analysis

import (
	"errors"
	"fmt"

	"trading-analytics/internal/indicator"
	"trading-analytics/internal/model"
)

// Options holds the analyzer's tunable constants.
type Options struct {
	PivotLookback     int     `json:"pivot_lookback"`      // bars each side of a pivot
	Sensitivity       float64 `json:"sensitivity"`         // level clustering band as a fraction of the price range
	TrendlinePoints   int     `json:"trendline_points"`    // most recent pivots used per trendline
	MinTrendlineR2    float64 `json:"min_trendline_r2"`    // trendlines at or below this fit are discarded
	MinBars           int     `json:"min_bars"`            // below this the result is neutral
	MaxLevels         int     `json:"max_levels"`          // strongest levels kept
	PatternTolerance  float64 `json:"pattern_tolerance"`   // double top/bottom price tolerance
	PatternMinSpacing int     `json:"pattern_min_spacing"` // bars between the two tops/bottoms
}

// DefaultOptions returns the standard analyzer configuration.
func DefaultOptions() Options {
	return Options{
		PivotLookback:     5,
		Sensitivity:       0.02,
		TrendlinePoints:   6,
		MinTrendlineR2:    0.7,
		MinBars:           20,
		MaxLevels:         6,
		PatternTolerance:  0.02,
		PatternMinSpacing: 5,
	}
}

// ErrInvalidOptions is returned for analyzer options outside their domain.
var ErrInvalidOptions = errors.New("invalid analysis options")

// Validate checks every tunable. Lookback, trendline points, min bars and
// pattern tolerance must be positive; sensitivity lies in (0, 1].
func (o Options) Validate() error {
	switch {
	case o.PivotLookback <= 0:
		return fmt.Errorf("%w: pivot lookback must be positive, got %d", ErrInvalidOptions, o.PivotLookback)
	case o.TrendlinePoints < 2:
		return fmt.Errorf("%w: trendline points must be at least 2, got %d", ErrInvalidOptions, o.TrendlinePoints)
	case o.MinBars <= 0:
		return fmt.Errorf("%w: min bars must be positive, got %d", ErrInvalidOptions, o.MinBars)
	case o.PatternTolerance <= 0:
		return fmt.Errorf("%w: pattern tolerance must be positive, got %g", ErrInvalidOptions, o.PatternTolerance)
	case o.Sensitivity <= 0 || o.Sensitivity > 1:
		return fmt.Errorf("%w: sensitivity must be in (0, 1], got %g", ErrInvalidOptions, o.Sensitivity)
	case o.MinTrendlineR2 < 0 || o.MinTrendlineR2 > 1:
		return fmt.Errorf("%w: min trendline R2 must be in [0, 1], got %g", ErrInvalidOptions, o.MinTrendlineR2)
	case o.MaxLevels < 0 || o.PatternMinSpacing < 0:
		return fmt.Errorf("%w: max levels and pattern spacing must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Snapshot holds the latest indicator readings shown alongside the structure.
type Snapshot struct {
	Close     float64             `json:"close"`
	RSI       model.Number        `json:"rsi"`
	SMA20     model.Number        `json:"sma20"`
	SMA50     model.Number        `json:"sma50"`
	ATR       model.Number        `json:"atr"`
	Fibonacci indicator.Fibonacci `json:"fibonacci"`
}

// Analysis is the full structural read of a series.
type Analysis struct {
	Bars           int            `json:"bars"`
	Trend          Trend          `json:"trend"`
	Trendlines     []Trendline    `json:"trendlines"`
	Levels         []Level        `json:"levels"`
	Patterns       []Pattern      `json:"patterns"`
	Score          int            `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Indicators     *Snapshot      `json:"indicators,omitempty"`
	Summary        string         `json:"summary"`
}

// Insufficient returns the result used when there is too little data.
func Insufficient(n, minBars int) Analysis {
	return Analysis{
		Bars:           n,
		Trend:          Trend{Direction: Sideways},
		Trendlines:     []Trendline{},
		Levels:         []Level{},
		Patterns:       []Pattern{},
		Recommendation: Recommend(0),
		Summary:        fmt.Sprintf("Insufficient data: %d bars, at least %d required for structure analysis.", n, minBars),
	}
}

// Analyze runs the pipeline with DefaultOptions.
func Analyze(bars []model.Bar) (Analysis, error) {
	return AnalyzeWith(bars, DefaultOptions())
}

// AnalyzeWith runs the pipeline with explicit options. Malformed input
// (see model.ValidateBars) and invalid options are errors; a short series
// is not.
func AnalyzeWith(bars []model.Bar, opts Options) (Analysis, error) {
	if err := opts.Validate(); err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	if err := model.ValidateBars(bars); err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	if len(bars) < opts.MinBars {
		return Insufficient(len(bars), opts.MinBars), nil
	}

	highs, lows := DetectPivots(bars, opts.PivotLookback)
	a := Analysis{
		Bars:       len(bars),
		Trendlines: FitTrendlines(highs, lows, opts.TrendlinePoints, opts.MinTrendlineR2),
		Levels:     DetectSupportResistance(bars, highs, lows, opts.Sensitivity, opts.MaxLevels),
		Patterns:   detectPatterns(bars, highs, lows, opts),
		Trend:      ClassifyTrend(bars),
	}
	a.Score = SentimentScore(bars, a.Trend, a.Patterns)
	a.Recommendation = Recommend(a.Score)
	a.Indicators = snapshot(bars)
	a.Summary = Summarize(a)
	return a, nil
}

func snapshot(bars []model.Bar) *Snapshot {
	closes := indicator.Closes(bars)
	fib, _ := indicator.FibonacciLevels(bars)
	return &Snapshot{
		Close:     closes[len(closes)-1],
		RSI:       model.Number(indicator.RSI(closes, indicator.DefaultRSIPeriod).Last()),
		SMA20:     model.Number(indicator.SMA(closes, 20).Last()),
		SMA50:     model.Number(indicator.SMA(closes, 50).Last()),
		ATR:       model.Number(indicator.ATR(bars, indicator.DefaultATRPeriod).Last()),
		Fibonacci: fib,
	}
}
