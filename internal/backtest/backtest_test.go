package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"trading-analytics/internal/model"
	"trading-analytics/internal/strategy"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func closesToBars(closes []float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.NewBar(int64(i+1)*86400, c, c+1, c-1, c, 1000)
	}
	return bars
}

// crossSeries has one golden cross (SMA5/SMA20) at bar 40 and one death
// cross at bar 120.
func crossSeries(n int) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
		if i >= 40 && i < 120 {
			closes[i] = 110
		}
	}
	return closesToBars(closes)
}

func randomWalk(n int, seed int64) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price *= 1 + (rng.Float64()-0.5)*0.04
		closes[i] = price
	}
	return closesToBars(closes)
}

var crossCfg = strategy.Config{Kind: strategy.SMACrossover, FastPeriod: 5, SlowPeriod: 20, InitialCapital: 10000}

// ────────────────────────────────────────────────────────────
// Run
// ────────────────────────────────────────────────────────────

func TestRun_FlatBollingerBuysAndClosesAtEnd(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 42
	}
	res, err := Run(closesToBars(closes), strategy.Config{Kind: strategy.BollingerBounce})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("expected buy and forced exit, got %+v", res.Trades)
	}
	buy, sell := res.Trades[0], res.Trades[1]
	if buy.Side != strategy.ActionBuy || buy.Index != 19 || buy.Price != 42 {
		t.Errorf("unexpected buy %+v", buy)
	}
	if sell.Side != strategy.ActionSell || sell.Index != 29 || sell.Reason != ReasonEndOfPeriod {
		t.Errorf("unexpected exit %+v", sell)
	}
	assertClose(t, "final equity", res.Equity[len(res.Equity)-1].Equity, 10000, 1e-6)
}

func TestRun_GoldenThenDeathCross(t *testing.T) {
	bars := crossSeries(200)
	res, err := Run(bars, crossCfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("expected exactly 2 trades, got %+v", res.Trades)
	}
	buy, sell := res.Trades[0], res.Trades[1]
	if buy.Side != strategy.ActionBuy || buy.Index != 40 || buy.Price != 110 {
		t.Errorf("unexpected buy %+v", buy)
	}
	if sell.Side != strategy.ActionSell || sell.Index != 120 || sell.Price != 100 {
		t.Errorf("unexpected sell %+v", sell)
	}
	assertClose(t, "totalReturn", res.Metrics.TotalReturn, (100.0-110.0)/110.0*100, 1e-9)
	assertClose(t, "final equity", res.Metrics.FinalEquity, 10000*100.0/110.0, 1e-9)
	if res.Metrics.TotalTrades != 1 || res.Metrics.Losses != 1 || res.Metrics.WinRate != 0 {
		t.Errorf("unexpected counts %+v", res.Metrics)
	}
	if float64(res.Metrics.ProfitFactor) != 0 {
		t.Errorf("expected profit factor 0 with only a loss, got %v", res.Metrics.ProfitFactor)
	}
	assertClose(t, "maxDrawdown", res.Metrics.MaxDrawdown, 10.0/110.0*100, 1e-9)
	if len(res.Equity) != len(bars) {
		t.Errorf("equity curve length %d, want %d", len(res.Equity), len(bars))
	}
}

func TestRun_ForceCloseAtEnd(t *testing.T) {
	// golden cross at 40, never crosses back
	res, err := Run(crossSeries(100), crossCfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("expected buy + forced sell, got %+v", res.Trades)
	}
	exit := res.Trades[1]
	if exit.Reason != ReasonEndOfPeriod || exit.Index != 99 || exit.Price != 110 {
		t.Errorf("unexpected forced exit %+v", exit)
	}
	if exit.PnLPct == nil || *exit.PnLPct != 0 {
		t.Errorf("expected a flat round trip, got %v", exit.PnLPct)
	}
	if res.Metrics.Wins != 0 || res.Metrics.Losses != 0 || res.Metrics.TotalTrades != 1 {
		t.Errorf("zero P&L round trip should be neither win nor loss, got %+v", res.Metrics)
	}
}

func TestRun_EquityFollowsPosition(t *testing.T) {
	res, err := Run(crossSeries(200), crossCfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "flat before entry", res.Equity[39].Equity, 10000, 0)
	assertClose(t, "long at entry", res.Equity[40].Equity, 10000, 1e-9)
	assertClose(t, "flat after exit", res.Equity[150].Equity, 10000*100.0/110.0, 1e-9)
}

func TestRun_AlternatingTrades(t *testing.T) {
	for _, kind := range strategy.Kinds {
		for seed := int64(1); seed <= 5; seed++ {
			bars := randomWalk(300, seed)
			res, err := Run(bars, strategy.Config{Kind: kind})
			if err != nil {
				t.Fatalf("%s/%d: unexpected error: %v", kind, seed, err)
			}
			if len(res.Equity) != len(bars) {
				t.Errorf("%s/%d: equity length %d, want %d", kind, seed, len(res.Equity), len(bars))
			}
			for i, tr := range res.Trades {
				want := strategy.ActionBuy
				if i%2 == 1 {
					want = strategy.ActionSell
				}
				if tr.Side != want {
					t.Fatalf("%s/%d: trade %d is %s, want %s", kind, seed, i, tr.Side, want)
				}
				if i > 0 && tr.Index < res.Trades[i-1].Index {
					t.Fatalf("%s/%d: trades out of order", kind, seed)
				}
			}
			if len(res.Trades)%2 != 0 {
				t.Errorf("%s/%d: open position left at end", kind, seed)
			}
			m := res.Metrics
			if m.WinRate < 0 || m.WinRate > 100 || m.MaxDrawdown < 0 || m.MaxDrawdown > 100 {
				t.Errorf("%s/%d: metrics out of range %+v", kind, seed, m)
			}
		}
	}
}

func TestRun_Errors(t *testing.T) {
	if _, err := Run(nil, crossCfg); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
	if _, err := Run(crossSeries(50), strategy.Config{Kind: "scalper"}); !errors.Is(err, strategy.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestRun_ShortSeriesHasNoTrades(t *testing.T) {
	res, err := Run(crossSeries(30), strategy.Config{Kind: strategy.SMACrossover})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 0 || res.Metrics.TotalReturn != 0 {
		t.Errorf("expected no activity before warm-up, got %+v", res)
	}
}

// ────────────────────────────────────────────────────────────
// Metrics
// ────────────────────────────────────────────────────────────

func TestComputeMetrics_HandComputed(t *testing.T) {
	equity := []EquityPoint{{Equity: 100}, {Equity: 110}, {Equity: 99}, {Equity: 121}}
	m := ComputeMetrics(100, 121, []float64{10, -5, 20}, equity)

	assertClose(t, "totalReturn", m.TotalReturn, 21, 1e-12)
	assertClose(t, "maxDrawdown", m.MaxDrawdown, 10, 1e-12)
	assertClose(t, "winRate", m.WinRate, 200.0/3, 1e-12)
	assertClose(t, "profitFactor", float64(m.ProfitFactor), 6, 1e-12)
	// mean 25/3, sample variance 475/3
	assertClose(t, "sharpe", m.SharpeRatio, (25.0/3)/math.Sqrt(475.0/3)*math.Sqrt(252), 1e-9)
	if m.Wins != 2 || m.Losses != 1 || m.TotalTrades != 3 {
		t.Errorf("unexpected counts %+v", m)
	}
}

func TestComputeMetrics_Policies(t *testing.T) {
	none := ComputeMetrics(100, 100, nil, nil)
	if none.WinRate != 0 || float64(none.ProfitFactor) != 0 || none.SharpeRatio != 0 {
		t.Errorf("no trades: got %+v", none)
	}

	allWins := ComputeMetrics(100, 108, []float64{5, 3}, nil)
	if !math.IsInf(float64(allWins.ProfitFactor), 1) {
		t.Errorf("wins without losses should give +Inf profit factor, got %v", allWins.ProfitFactor)
	}
	data, err := json.Marshal(allWins)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"profit_factor":"Infinity"`) {
		t.Errorf("expected Infinity encoding, got %s", data)
	}

	single := ComputeMetrics(100, 105, []float64{5}, nil)
	if single.SharpeRatio != 0 {
		t.Errorf("one return should give zero Sharpe, got %v", single.SharpeRatio)
	}
	same := ComputeMetrics(100, 110, []float64{5, 5}, nil)
	if same.SharpeRatio != 0 {
		t.Errorf("zero dispersion should give zero Sharpe, got %v", same.SharpeRatio)
	}
}

// ────────────────────────────────────────────────────────────
// Batch
// ────────────────────────────────────────────────────────────

func TestRunBatch_KeepsOrder(t *testing.T) {
	var jobs []Job
	for _, kind := range strategy.Kinds {
		jobs = append(jobs, Job{Name: string(kind), Bars: randomWalk(200, 7), Config: strategy.Config{Kind: kind}})
	}
	jobs = append(jobs, Job{Name: "broken", Bars: randomWalk(200, 7), Config: strategy.Config{Kind: "nope"}})

	out, err := RunBatch(context.Background(), jobs, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(jobs) {
		t.Fatalf("expected %d outcomes, got %d", len(jobs), len(out))
	}
	for i, o := range out[:len(strategy.Kinds)] {
		if o.Name != jobs[i].Name || o.Err != nil || o.Result == nil {
			t.Errorf("outcome %d: %+v", i, o)
			continue
		}
		want, _ := Run(jobs[i].Bars, jobs[i].Config)
		if o.Result.Metrics != want.Metrics {
			t.Errorf("outcome %d differs from a sequential run", i)
		}
	}
	if last := out[len(out)-1]; !errors.Is(last.Err, strategy.ErrUnknownStrategy) {
		t.Errorf("expected the broken job to fail alone, got %+v", last)
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{{Name: "a", Bars: randomWalk(100, 1), Config: crossCfg}}
	out, err := RunBatch(ctx, jobs, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(out) != 1 || out[0].Result != nil {
		t.Errorf("cancelled batch should not run jobs, got %+v", out)
	}
}
