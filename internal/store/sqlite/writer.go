package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"trading-analytics/internal/model"
)

const defaultBatchSize = 500

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/bars.db"
}

// Writer persists bar series and computed results.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func open(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol     TEXT    NOT NULL,
			tf         INTEGER NOT NULL,
			ts         INTEGER NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     REAL,
			PRIMARY KEY (symbol, tf, ts)
		);

		CREATE TABLE IF NOT EXISTS backtest_runs (
			id         TEXT    PRIMARY KEY,
			symbol     TEXT    NOT NULL,
			strategy   TEXT    NOT NULL,
			data       TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_backtest_runs_symbol ON backtest_runs (symbol, created_at);

		CREATE TABLE IF NOT EXISTS analysis_reports (
			id         TEXT    PRIMARY KEY,
			symbol     TEXT    NOT NULL,
			data       TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	return err
}

// SaveBars upserts bars for symbol/tf in transactions of defaultBatchSize rows.
func (w *Writer) SaveBars(ctx context.Context, symbol string, tf int, bars []model.Bar) error {
	start := time.Now()
	for from := 0; from < len(bars); from += defaultBatchSize {
		to := from + defaultBatchSize
		if to > len(bars) {
			to = len(bars)
		}
		if err := w.insertBatch(ctx, symbol, tf, bars[from:to]); err != nil {
			return fmt.Errorf("sqlite save bars: %w", err)
		}
	}
	log.Printf("[sqlite] committed %d bars for %s/%d in %v", len(bars), symbol, tf, time.Since(start))
	return nil
}

// insertBatch inserts a batch of bars in a single transaction.
func (w *Writer) insertBatch(ctx context.Context, symbol string, tf int, bars []model.Bar) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, tf, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		var vol sql.NullFloat64
		if b.Volume != nil {
			vol = sql.NullFloat64{Float64: *b.Volume, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, symbol, tf, b.TS, b.Open, b.High, b.Low, b.Close, vol); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// LastTimestamp returns the last stored bar timestamp for symbol/tf, or 0.
func (w *Writer) LastTimestamp(ctx context.Context, symbol string, tf int) (int64, error) {
	var ts sql.NullInt64
	err := w.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM bars WHERE symbol = ? AND tf = ?`,
		symbol, tf,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// SaveBacktestJSON stores an encoded backtest result under a new run id.
func (w *Writer) SaveBacktestJSON(ctx context.Context, symbol, strategy string, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO backtest_runs (id, symbol, strategy, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, symbol, strategy, string(data), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite insert backtest run: %w", err)
	}
	return id, nil
}

// SaveAnalysisJSON stores an encoded analysis report under a new id.
func (w *Writer) SaveAnalysisJSON(ctx context.Context, symbol string, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO analysis_reports (id, symbol, data, created_at) VALUES (?, ?, ?, ?)`,
		id, symbol, string(data), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite insert analysis report: %w", err)
	}
	return id, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}

var (
	_ model.BarWriter   = (*Writer)(nil)
	_ model.ResultStore = (*Writer)(nil)
)
