// cmd/backtest runs a strategy, or a YAML plan of strategies, over a stored
// or file-based bar series and prints the results.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=ACME --strategy=sma_crossover --fast=20 --slow=50
//	go run ./cmd/backtest --file=data/acme.csv --strategy=rsi_reversal --json
//	go run ./cmd/backtest --plan=plans/daily.yaml --save
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trading-analytics/config"
	"trading-analytics/internal/backtest"
	"trading-analytics/internal/marketdata"
	"trading-analytics/internal/model"
	"trading-analytics/internal/report"
	"trading-analytics/internal/scheduler"
	sqlitestore "trading-analytics/internal/store/sqlite"
	"trading-analytics/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	// Source
	dbPath := flag.String("db", "data/bars.db", "Path to SQLite database")
	file := flag.String("file", "", "Load bars from a .csv or .json file instead of SQLite")
	symbol := flag.String("symbol", "", "Symbol to read from SQLite")
	tf := flag.Int("tf", 86400, "Timeframe in seconds")
	fromTS := flag.Int64("from", 0, "Only bars after this Unix timestamp (0=all)")
	resample := flag.Int("resample", 0, "Aggregate bars into this timeframe in seconds before running (0=off)")

	// Strategy
	kind := flag.String("strategy", string(strategy.SMACrossover), "Strategy: sma_crossover, ema_crossover, rsi_reversal, bollinger_bounce")
	fast := flag.Int("fast", 0, "Fast MA period (crossovers)")
	slow := flag.Int("slow", 0, "Slow MA period (crossovers)")
	rsiPeriod := flag.Int("rsi", 0, "RSI period")
	buy := flag.Float64("buy", 0, "RSI buy threshold")
	sell := flag.Float64("sell", 0, "RSI sell threshold")
	bbPeriod := flag.Int("bb", 0, "Bollinger period")
	capital := flag.Float64("capital", strategy.DefaultInitialCapital, "Initial capital")

	// Batch
	planPath := flag.String("plan", "", "YAML plan of named runs (overrides the strategy flags)")
	workers := flag.Int("workers", 4, "Concurrent backtests for plans")
	save := flag.Bool("save", false, "Store results in SQLite")
	asJSON := flag.Bool("json", false, "Print JSON instead of the text report")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if *planPath != "" {
		runPlan(ctx, *planPath, *dbPath, *workers, *asJSON)
		return
	}

	bars, err := loadBars(ctx, *file, *dbPath, *symbol, *tf, *fromTS)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	if *resample > 0 {
		if bars, err = marketdata.Resample(bars, *resample); err != nil {
			log.Fatalf("[backtest] %v", err)
		}
	}

	cfg := strategy.Config{
		Kind:           strategy.Kind(*kind),
		FastPeriod:     *fast,
		SlowPeriod:     *slow,
		RSIPeriod:      *rsiPeriod,
		BuyThreshold:   *buy,
		SellThreshold:  *sell,
		BBPeriod:       *bbPeriod,
		InitialCapital: *capital,
	}
	res, err := backtest.Run(bars, cfg)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	label := *symbol
	if label == "" {
		label = *file
	}
	if *save {
		saveResult(ctx, *dbPath, label, res)
	}
	if *asJSON {
		printJSON(res)
		return
	}
	fmt.Print(report.RenderBacktest(label, res))
}

func runPlan(ctx context.Context, path, dbPath string, workers int, asJSON bool) {
	plan, err := config.LoadPlan(path)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	if err := plan.Validate(); err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: dbPath})
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer writer.Close()
	reader, err := sqlitestore.NewReader(dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	rep, err := scheduler.New(ctx, reader, writer, workers).RunPlan(ctx, path, plan)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	if asJSON {
		printJSON(rep)
		return
	}
	fmt.Print(report.RenderBatch(plan.Symbol, rep.Outcomes))
	for _, o := range rep.Outcomes {
		if id, ok := rep.RunIDs[o.Name]; ok {
			fmt.Printf("  stored %-24s %s\n", o.Name, id)
		}
	}
}

func loadBars(ctx context.Context, file, dbPath, symbol string, tf int, from int64) ([]model.Bar, error) {
	if file != "" {
		return marketdata.LoadFile(file)
	}
	if symbol == "" {
		return nil, fmt.Errorf("either --file or --symbol is required")
	}
	reader, err := sqlitestore.NewReader(dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open failed: %w", err)
	}
	defer reader.Close()
	return marketdata.LoadSQLite(ctx, reader, symbol, tf, from)
}

func saveResult(ctx context.Context, dbPath, symbol string, res *backtest.Result) {
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: dbPath})
	if err != nil {
		log.Printf("[backtest] save skipped: %v", err)
		return
	}
	defer writer.Close()
	data, err := json.Marshal(res)
	if err != nil {
		log.Printf("[backtest] save skipped: %v", err)
		return
	}
	id, err := writer.SaveBacktestJSON(ctx, symbol, res.Strategy, data)
	if err != nil {
		log.Printf("[backtest] save failed: %v", err)
		return
	}
	log.Printf("[backtest] stored run %s", id)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("[backtest] encode: %v", err)
	}
}
