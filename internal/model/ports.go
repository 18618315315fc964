package model

import "context"

// ── Storage Port Interfaces ──
// These interfaces decouple the engine's collaborators from concrete storage
// (SQLite, Redis). The numeric core never depends on them.

// BarReader reads stored bar series.
type BarReader interface {
	// ReadBars returns bars for symbol at timeframe tf (seconds) with ts > afterTS,
	// ordered oldest-first.
	ReadBars(ctx context.Context, symbol string, tf int, afterTS int64) ([]Bar, error)

	// Close releases underlying resources.
	Close() error
}

// BarWriter persists bar series.
type BarWriter interface {
	// SaveBars upserts bars for symbol at timeframe tf.
	SaveBars(ctx context.Context, symbol string, tf int, bars []Bar) error

	// Close releases underlying resources.
	Close() error
}

// ResultStore persists computed results as JSON documents.
// Using []byte keeps model free of analysis/backtest imports.
type ResultStore interface {
	// SaveBacktestJSON stores a backtest result and returns its run id.
	SaveBacktestJSON(ctx context.Context, symbol, strategy string, data []byte) (string, error)

	// SaveAnalysisJSON stores an analysis report and returns its id.
	SaveAnalysisJSON(ctx context.Context, symbol string, data []byte) (string, error)
}
