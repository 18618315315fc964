package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"trading-analytics/internal/model"
)

// ErrNotFound is returned when a stored run does not exist.
var ErrNotFound = errors.New("not found")

// Reader provides read access to stored bars and results.
type Reader struct {
	db *sql.DB
}

// RunInfo describes one stored backtest run.
type RunInfo struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReader opens a SQLite connection for reading. The schema is created
// when missing so queries on a fresh file return empty results.
func NewReader(dbPath string) (*Reader, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (r *Reader) DB() *sql.DB { return r.db }

// ReadBars reads bars for symbol/tf with ts > afterTS, ordered by timestamp
// ascending.
func (r *Reader) ReadBars(ctx context.Context, symbol string, tf int, afterTS int64) ([]model.Bar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND tf = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, tf, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var vol sql.NullFloat64
		if err := rows.Scan(&b.TS, &b.Open, &b.High, &b.Low, &b.Close, &vol); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		if vol.Valid {
			v := vol.Float64
			b.Volume = &v
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListRuns returns the most recent backtest runs, newest first. An empty
// symbol lists every symbol.
func (r *Reader) ListRuns(ctx context.Context, symbol string, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, strategy, created_at
		FROM backtest_runs
		WHERE ? = '' OR symbol = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query backtest_runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunInfo, 0)
	for rows.Next() {
		var ri RunInfo
		var created int64
		if err := rows.Scan(&ri.ID, &ri.Symbol, &ri.Strategy, &created); err != nil {
			return nil, fmt.Errorf("sqlite scan backtest_runs: %w", err)
		}
		ri.CreatedAt = time.Unix(created, 0).UTC()
		runs = append(runs, ri)
	}
	return runs, rows.Err()
}

// ReadRun loads the stored JSON document of a backtest run.
func (r *Reader) ReadRun(ctx context.Context, id string) (json.RawMessage, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM backtest_runs WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("backtest run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("sqlite read backtest run: %w", err)
	}
	return json.RawMessage(data), nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}

var _ model.BarReader = (*Reader)(nil)
