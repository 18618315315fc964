package marketdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trading-analytics/internal/model"
)

func assertClose(t *testing.T, label string, got, want float64) {
	t.Helper()
	d := got - want
	if d < 0 {
		d = -d
	}
	if d > 1e-9 {
		t.Errorf("%s: got %v, want %v", label, got, want)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// JSON / CSV
// ────────────────────────────────────────────────────────────────────────────

func TestDecodeJSON_SortsAndValidates(t *testing.T) {
	in := `[
		{"ts": 120, "open": 11, "high": 12, "low": 10, "close": 11.5},
		{"ts": 60,  "open": 10, "high": 11, "low": 9,  "close": 10.5, "volume": 300}
	]`
	bars, err := DecodeJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bars) != 2 || bars[0].TS != 60 || bars[1].TS != 120 {
		t.Fatalf("expected sorted bars, got %+v", bars)
	}
	if bars[0].Vol(-1) != 300 || bars[1].Volume != nil {
		t.Errorf("volume not preserved: %+v", bars)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	if _, err := DecodeJSON(strings.NewReader(`[]`)); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
	dup := `[{"ts":1,"open":1,"high":1,"low":1,"close":1},{"ts":1,"open":1,"high":1,"low":1,"close":1}]`
	if _, err := DecodeJSON(strings.NewReader(dup)); !errors.Is(err, model.ErrUnordered) {
		t.Errorf("expected ErrUnordered for duplicate ts, got %v", err)
	}
	if _, err := DecodeJSON(strings.NewReader(`{`)); err == nil {
		t.Error("expected a decode error")
	}
}

func TestDecodeCSV(t *testing.T) {
	in := "ts,open,high,low,close,volume\n" +
		"200, 11, 12, 10, 11.5,\n" +
		"100, 10, 11, 9, 10.5, 250\n"
	bars, err := DecodeCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bars) != 2 || bars[0].TS != 100 {
		t.Fatalf("unexpected bars %+v", bars)
	}
	assertClose(t, "close", bars[0].Close, 10.5)
	if bars[0].Vol(0) != 250 || bars[1].Volume != nil {
		t.Errorf("volume handling wrong: %+v", bars)
	}
}

func TestDecodeCSV_ColumnOrderAndErrors(t *testing.T) {
	in := "Close,Low,High,Open,TS\n10,9,11,10,1\n"
	bars, err := DecodeCSV(strings.NewReader(in))
	if err != nil || len(bars) != 1 || bars[0].High != 11 || bars[0].Volume != nil {
		t.Fatalf("reordered header: %v %+v", err, bars)
	}

	if _, err := DecodeCSV(strings.NewReader("ts,open,close\n1,1,1\n")); !errors.Is(err, ErrBadHeader) {
		t.Errorf("expected ErrBadHeader, got %v", err)
	}
	if _, err := DecodeCSV(strings.NewReader("ts,open,high,low,close\nx,1,1,1,1\n")); err == nil {
		t.Error("expected parse error for bad ts")
	}
	if _, err := DecodeCSV(strings.NewReader("ts,open,high,low,close\n1,10,9,8,10\n")); !errors.Is(err, model.ErrInvalidBar) {
		t.Errorf("expected ErrInvalidBar, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bars.CSV")
	jsonPath := filepath.Join(dir, "bars.json")
	os.WriteFile(csvPath, []byte("ts,open,high,low,close\n1,10,11,9,10\n"), 0o644)
	os.WriteFile(jsonPath, []byte(`[{"ts":1,"open":10,"high":11,"low":9,"close":10}]`), 0o644)

	for _, p := range []string{csvPath, jsonPath} {
		bars, err := LoadFile(p)
		if err != nil || len(bars) != 1 {
			t.Errorf("%s: %v %+v", p, err, bars)
		}
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

// ────────────────────────────────────────────────────────────────────────────
// SQLite port
// ────────────────────────────────────────────────────────────────────────────

type fakeReader struct {
	bars []model.Bar
	err  error
	args []any
}

func (f *fakeReader) ReadBars(_ context.Context, symbol string, tf int, after int64) ([]model.Bar, error) {
	f.args = []any{symbol, tf, after}
	return f.bars, f.err
}

func (f *fakeReader) Close() error { return nil }

func TestLoadSQLite(t *testing.T) {
	r := &fakeReader{bars: []model.Bar{
		model.NewBar(2, 10, 11, 9, 10, 1),
		model.NewBar(1, 10, 11, 9, 10, 1),
	}}
	bars, err := LoadSQLite(context.Background(), r, "ACME", 60, 0)
	if err != nil || bars[0].TS != 1 {
		t.Fatalf("load: %v %+v", err, bars)
	}
	if r.args[0] != "ACME" || r.args[1] != 60 || r.args[2] != int64(0) {
		t.Errorf("unexpected reader args %v", r.args)
	}

	empty := &fakeReader{}
	if _, err := LoadSQLite(context.Background(), empty, "ACME", 60, 0); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
	boom := errors.New("boom")
	if _, err := LoadSQLite(context.Background(), &fakeReader{err: boom}, "ACME", 60, 0); !errors.Is(err, boom) {
		t.Errorf("expected wrapped reader error, got %v", err)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Resample
// ────────────────────────────────────────────────────────────────────────────

func TestResample(t *testing.T) {
	bars := []model.Bar{
		model.NewBar(60, 10, 12, 9, 11, 100),
		model.NewBar(120, 11, 15, 10, 14, 50),
		{TS: 180, Open: 14, High: 14, Low: 8, Close: 9},
		model.NewBar(300, 9, 10, 8, 10, 20),
	}
	out, err := Resample(bars, 180)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(out))
	}
	first := out[0]
	if first.TS != 0 || first.Open != 10 || first.High != 15 || first.Low != 9 || first.Close != 14 {
		t.Errorf("unexpected first bucket %+v", first)
	}
	assertClose(t, "first volume", first.Vol(-1), 150)

	second := out[1]
	if second.TS != 180 || second.Open != 14 || second.Low != 8 || second.Close != 10 {
		t.Errorf("unexpected second bucket %+v", second)
	}
	assertClose(t, "second volume", second.Vol(-1), 20)
	if bars[0].Vol(0) != 100 {
		t.Error("input volume mutated")
	}
}

func TestResample_Errors(t *testing.T) {
	if _, err := Resample([]model.Bar{model.NewBar(1, 1, 1, 1, 1, 1)}, 0); err == nil {
		t.Error("expected error for zero timeframe")
	}
	if _, err := Resample(nil, 60); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}
