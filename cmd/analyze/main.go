// cmd/analyze computes indicators and the market-structure analysis of a
// stored or file-based bar series.
//
// Usage:
//
//	go run ./cmd/analyze --symbol=ACME --indicators=SMA:20,RSI,BB:20
//	go run ./cmd/analyze --file=data/acme.json --json --save
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"trading-analytics/internal/analysis"
	"trading-analytics/internal/indicator"
	"trading-analytics/internal/marketdata"
	"trading-analytics/internal/model"
	"trading-analytics/internal/report"
	sqlitestore "trading-analytics/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	dbPath := flag.String("db", "data/bars.db", "Path to SQLite database")
	file := flag.String("file", "", "Load bars from a .csv or .json file instead of SQLite")
	symbol := flag.String("symbol", "", "Symbol to read from SQLite")
	tf := flag.Int("tf", 86400, "Timeframe in seconds")
	fromTS := flag.Int64("from", 0, "Only bars after this Unix timestamp (0=all)")
	resample := flag.Int("resample", 0, "Aggregate bars into this timeframe in seconds first (0=off)")
	specStr := flag.String("indicators", "", "Indicator specs: TYPE[:PERIOD],... (default: SMA:20,SMA:50,EMA:9,EMA:21,RSI:14)")
	importFile := flag.Bool("import", false, "Store bars loaded from --file under --symbol/--tf")
	save := flag.Bool("save", false, "Store the analysis report in SQLite")
	asJSON := flag.Bool("json", false, "Print JSON instead of the text report")
	flag.Parse()

	ctx := context.Background()

	specs, err := indicator.ParseSpecs(*specStr)
	if err != nil {
		log.Fatalf("[analyze] %v", err)
	}

	bars, err := loadBars(ctx, *file, *dbPath, *symbol, *tf, *fromTS)
	if err != nil {
		log.Fatalf("[analyze] %v", err)
	}
	if *resample > 0 {
		if bars, err = marketdata.Resample(bars, *resample); err != nil {
			log.Fatalf("[analyze] %v", err)
		}
	}

	results, err := indicator.Compute(bars, specs)
	if err != nil {
		log.Fatalf("[analyze] %v", err)
	}
	a, err := analysis.Analyze(bars)
	if err != nil {
		log.Fatalf("[analyze] %v", err)
	}

	if *importFile || *save {
		persist(ctx, *dbPath, *symbol, *tf, bars, a, *importFile && *file != "", *save)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"indicators": results, "analysis": a}); err != nil {
			log.Fatalf("[analyze] encode: %v", err)
		}
		return
	}

	label := *symbol
	if label == "" {
		label = *file
	}
	fmt.Print(report.RenderAnalysis(label, a))
	fmt.Println("  Latest indicator values")
	for _, r := range results {
		v, idx := r.Values.LastDefined()
		if idx < 0 {
			fmt.Printf("    %-20s n/a\n", r.Name)
			continue
		}
		fmt.Printf("    %-20s %12s\n", r.Name, report.Money(v))
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

func persist(ctx context.Context, dbPath, symbol string, tf int, bars []model.Bar, a analysis.Analysis, importBars, saveReport bool) {
	if symbol == "" {
		log.Printf("[analyze] --symbol is required to store data")
		return
	}
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: dbPath})
	if err != nil {
		log.Printf("[analyze] sqlite open failed: %v", err)
		return
	}
	defer writer.Close()

	if importBars {
		if err := writer.SaveBars(ctx, symbol, tf, bars); err != nil {
			log.Printf("[analyze] import failed: %v", err)
		} else {
			log.Printf("[analyze] imported %d bars as %s/%d", len(bars), symbol, tf)
		}
	}
	if saveReport {
		data, err := json.Marshal(a)
		if err != nil {
			log.Printf("[analyze] encode analysis: %v", err)
			return
		}
		id, err := writer.SaveAnalysisJSON(ctx, symbol, data)
		if err != nil {
			log.Printf("[analyze] save failed: %v", err)
			return
		}
		log.Printf("[analyze] stored analysis %s", id)
	}
}
