// Package marketdata loads bar series from files and the SQLite store and
// normalises them into the oldest-first, validated form the engine expects.
package marketdata

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"trading-analytics/internal/model"
)

// ErrBadHeader is returned when a CSV file lacks the required columns.
var ErrBadHeader = errors.New("csv header must contain ts,open,high,low,close")

// Normalize sorts bars oldest-first and validates them.
func Normalize(bars []model.Bar) ([]model.Bar, error) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].TS < bars[j].TS })
	if err := model.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// LoadJSON reads a JSON array of bars from path.
func LoadJSON(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeJSON(f)
}

// DecodeJSON reads a JSON array of bars from r.
func DecodeJSON(r io.Reader) ([]model.Bar, error) {
	var bars []model.Bar
	if err := json.NewDecoder(r).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	return Normalize(bars)
}

// LoadCSV reads bars from a CSV file with a header naming ts, open, high,
// low, close and an optional volume column, in any order.
func LoadCSV(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV reads CSV bars from r. An empty volume cell means no volume.
func DecodeCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"ts", "open", "high", "low", "close"} {
		if _, ok := col[name]; !ok {
			return nil, ErrBadHeader
		}
	}
	volIdx, hasVol := col["volume"]

	var bars []model.Bar
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		ts, err := strconv.ParseInt(rec[col["ts"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: ts: %w", line, err)
		}
		var px [4]float64
		for k, name := range []string{"open", "high", "low", "close"} {
			px[k], err = strconv.ParseFloat(rec[col[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %s: %w", line, name, err)
			}
		}
		b := model.Bar{TS: ts, Open: px[0], High: px[1], Low: px[2], Close: px[3]}
		if hasVol && volIdx < len(rec) && rec[volIdx] != "" {
			v, err := strconv.ParseFloat(rec[volIdx], 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: volume: %w", line, err)
			}
			b.Volume = &v
		}
		bars = append(bars, b)
	}
	return Normalize(bars)
}

// LoadFile dispatches on the file extension (.csv, otherwise JSON).
func LoadFile(path string) ([]model.Bar, error) {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return LoadCSV(path)
	}
	return LoadJSON(path)
}

// LoadSQLite reads stored bars for symbol at timeframe tf with ts > from.
func LoadSQLite(ctx context.Context, reader model.BarReader, symbol string, tf int, from int64) ([]model.Bar, error) {
	bars, err := reader.ReadBars(ctx, symbol, tf, from)
	if err != nil {
		return nil, fmt.Errorf("load %s/%d: %w", symbol, tf, err)
	}
	return Normalize(bars)
}
