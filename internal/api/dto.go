package api

import (
	"trading-analytics/internal/analysis"
	"trading-analytics/internal/backtest"
	"trading-analytics/internal/indicator"
	"trading-analytics/internal/model"
	"trading-analytics/internal/strategy"
)

// SeriesRequest carries either inline bars or a reference to stored bars.
// Inline bars win when both are given.
type SeriesRequest struct {
	Bars   []model.Bar `json:"bars,omitempty"`
	Symbol string      `json:"symbol,omitempty"`
	TF     int         `json:"tf,omitempty"`   // seconds; defaults to daily
	From   int64       `json:"from,omitempty"` // only bars with ts > from
}

// IndicatorsRequest selects indicators either as a spec string
// ("SMA:20,RSI,BB:20") or as a list. Neither means the default set.
type IndicatorsRequest struct {
	SeriesRequest
	Indicators string           `json:"indicators,omitempty"`
	Specs      []indicator.Spec `json:"specs,omitempty"`
}

// IndicatorsResponse is the computed series, index-aligned with the bars.
type IndicatorsResponse struct {
	Bars       int                `json:"bars"`
	Timestamps []int64            `json:"timestamps"`
	Results    []indicator.Result `json:"results"`
}

// AnalyzeRequest runs the structure analyzer. Option fields left out of the
// request keep their defaults.
type AnalyzeRequest struct {
	SeriesRequest
	Options *analysis.Options `json:"options,omitempty"`
}

// BacktestRequest runs one strategy. Save stores the result when a result
// store is configured.
type BacktestRequest struct {
	SeriesRequest
	Strategy strategy.Config `json:"strategy"`
	Save     bool            `json:"save,omitempty"`
}

// BacktestResponse wraps a result with its stored run id, if any.
type BacktestResponse struct {
	RunID  string           `json:"run_id,omitempty"`
	Cached bool             `json:"cached"`
	Result *backtest.Result `json:"result"`
}

// NamedRun is one entry of a batch request.
type NamedRun struct {
	Name string `json:"name"`
	strategy.Config
}

// BatchRequest runs several strategies concurrently over the same series.
type BatchRequest struct {
	SeriesRequest
	Runs []NamedRun `json:"runs"`
}

// BatchOutcome is one batch entry; Error is set instead of Result on failure.
type BatchOutcome struct {
	Name   string           `json:"name"`
	Result *backtest.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// BatchResponse lists outcomes in request order.
type BatchResponse struct {
	Bars     int            `json:"bars"`
	Outcomes []BatchOutcome `json:"outcomes"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}
