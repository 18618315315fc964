package indicator

import (
	"math"
	"math/rand"
	"testing"

	"trading-analytics/internal/model"
)

// randomWalk builds a deterministic, well-formed bar series.
func randomWalk(n int, seed int64) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.Bar, n)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		price *= 1 + (rng.Float64()-0.5)*0.04
		hi := math.Max(open, price) * (1 + rng.Float64()*0.01)
		lo := math.Min(open, price) * (1 - rng.Float64()*0.01)
		bars[i] = model.NewBar(int64(1_700_000_000+i*86400), open, hi, lo, price, 1000+rng.Float64()*500)
	}
	return bars
}

func constantCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestWarmup_UndefinedThenFinite(t *testing.T) {
	closes := Closes(randomWalk(120, 1))
	for _, p := range []int{2, 5, 14, 20, 50} {
		bb := BollingerBands(closes, p, 2)
		series := []struct {
			name   string
			s      model.Series
			warmup int
		}{
			{"SMA", SMA(closes, p), p - 1},
			{"EMA", EMA(closes, p), p - 1},
			{"RSI", RSI(closes, p), p},
			{"BB upper", bb.Upper, p - 1},
			{"BB lower", bb.Lower, p - 1},
		}
		for _, tc := range series {
			if len(tc.s) != len(closes) {
				t.Fatalf("%s(%d): length %d != %d", tc.name, p, len(tc.s), len(closes))
			}
			for i, v := range tc.s {
				if i < tc.warmup && model.IsDefined(v) {
					t.Errorf("%s(%d)[%d] should be undefined", tc.name, p, i)
				}
				if i >= tc.warmup && (math.IsNaN(v) || math.IsInf(v, 0)) {
					t.Errorf("%s(%d)[%d] should be finite, got %v", tc.name, p, i, v)
				}
			}
		}
	}
}

func TestEMA_SeedEqualsSMA(t *testing.T) {
	closes := Closes(randomWalk(80, 2))
	for _, p := range []int{3, 9, 12, 26, 50} {
		ema := EMA(closes, p)
		sma := SMA(closes, p)
		if ema[p-1] != sma[p-1] {
			t.Errorf("period %d: EMA seed %v != SMA %v", p, ema[p-1], sma[p-1])
		}
	}
}

func TestSMA_ConstantSeries(t *testing.T) {
	closes := constantCloses(30, 17.25)
	for _, p := range []int{1, 4, 30} {
		sma := SMA(closes, p)
		for i := p - 1; i < len(closes); i++ {
			if sma[i] != 17.25 {
				t.Errorf("SMA(%d)[%d] = %v, want 17.25", p, i, sma[i])
			}
		}
	}
}

func TestRSI_Bounds(t *testing.T) {
	closes := Closes(randomWalk(300, 3))
	rsi := RSI(closes, 14)
	for i, v := range rsi {
		if model.IsDefined(v) && (v < 0 || v > 100) {
			t.Errorf("RSI[%d] = %v out of range", i, v)
		}
	}
}

func TestBollinger_Ordering(t *testing.T) {
	closes := Closes(randomWalk(200, 4))
	bb := BollingerBands(closes, 20, 2)
	for i := 19; i < len(closes); i++ {
		if !(bb.Upper[i] >= bb.Middle[i] && bb.Middle[i] >= bb.Lower[i]) {
			t.Errorf("index %d: upper %v middle %v lower %v", i, bb.Upper[i], bb.Middle[i], bb.Lower[i])
		}
	}
}

func TestATR_NonNegative(t *testing.T) {
	atr := ATR(randomWalk(150, 5), 14)
	for i, v := range atr {
		if model.IsDefined(v) && v < 0 {
			t.Errorf("ATR[%d] = %v < 0", i, v)
		}
	}
}

func TestOBV_NonDecreasingOnRisingCloses(t *testing.T) {
	bars := make([]model.Bar, 50)
	for i := range bars {
		c := 10 + float64(i)
		bars[i] = model.NewBar(int64(i+1), c, c+1, c-1, c, float64(i%7))
	}
	obv := OBV(bars)
	for i := 1; i < len(obv); i++ {
		if obv[i] < obv[i-1] {
			t.Errorf("OBV decreased at %d: %v < %v", i, obv[i], obv[i-1])
		}
	}
}

func TestHeikinAshi_Envelope(t *testing.T) {
	ha := HeikinAshi(randomWalk(100, 6))
	for i, c := range ha {
		if c.High < math.Max(c.Open, c.Close) || c.Low > math.Min(c.Open, c.Close) {
			t.Errorf("HA[%d] envelope broken: %+v", i, c)
		}
	}
}

func TestScenario_RisingYear(t *testing.T) {
	// 252 daily closes rising monotonically from 100 to 200, no noise.
	closes := make([]float64, 252)
	for i := range closes {
		closes[i] = 100 + 100*float64(i)/251
	}
	sma20 := SMA(closes, 20)
	sma50 := SMA(closes, 50)

	for i := 20; i < len(closes); i++ {
		if sma20[i] <= sma20[i-1] {
			t.Fatalf("SMA20 not rising at %d", i)
		}
	}
	for i := 50; i < len(closes); i++ {
		if sma50[i] <= sma50[i-1] {
			t.Fatalf("SMA50 not rising at %d", i)
		}
	}
	if sma20.Last() <= sma50.Last() {
		t.Errorf("expected SMA20 > SMA50 at the end, got %v <= %v", sma20.Last(), sma50.Last())
	}

	rsi := RSI(closes, 14)
	for i := 14; i < len(closes); i++ {
		if rsi[i] != 100 {
			t.Fatalf("RSI[%d] = %v, want 100 on a rising series", i, rsi[i])
		}
	}
}

func TestScenario_ConstantFortyTwo(t *testing.T) {
	closes := constantCloses(50, 42)

	bb := BollingerBands(closes, 20, 2)
	for i := 19; i < len(closes); i++ {
		if bb.Upper[i] != 42 || bb.Middle[i] != 42 || bb.Lower[i] != 42 {
			t.Errorf("BB[%d] = %v/%v/%v, want all 42", i, bb.Upper[i], bb.Middle[i], bb.Lower[i])
		}
	}

	rsi := RSI(closes, 14)
	for i := 14; i < len(closes); i++ {
		if rsi[i] != 100 {
			t.Errorf("RSI[%d] = %v, want 100 (zero-loss rule)", i, rsi[i])
		}
	}

	m := MACDDefault(closes)
	defined := 0
	for i, v := range m.Histogram {
		if model.IsDefined(v) {
			defined++
			if v != 0 {
				t.Errorf("histogram[%d] = %v, want 0", i, v)
			}
		}
	}
	// slow EMA from 25, signal over the compacted line from 25+8
	if defined != 50-33 {
		t.Errorf("expected %d defined histogram values, got %d", 50-33, defined)
	}
}
