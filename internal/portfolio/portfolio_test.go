package portfolio

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func TestAccount_RoundTrip(t *testing.T) {
	a := NewAccount(10000)
	if a.Long() {
		t.Fatal("new account should be flat")
	}
	if !a.Buy(100) {
		t.Fatal("buy from flat should succeed")
	}
	assertClose(t, "shares", a.Shares(), 100, 1e-12)
	assertClose(t, "cash", a.Cash(), 0, 0)
	assertClose(t, "entry", a.Entry(), 100, 0)
	assertClose(t, "equity at 120", a.Equity(120), 12000, 1e-9)

	if a.Buy(90) {
		t.Error("buy while long should be ignored")
	}
	assertClose(t, "entry unchanged", a.Entry(), 100, 0)

	pnl, ok := a.Sell(120)
	if !ok {
		t.Fatal("sell while long should succeed")
	}
	assertClose(t, "pnl %", pnl, 20, 1e-12)
	assertClose(t, "cash after sell", a.Cash(), 12000, 1e-9)
	if a.Long() || a.Entry() != 0 {
		t.Errorf("account should be flat after sell, got shares=%v entry=%v", a.Shares(), a.Entry())
	}

	if _, ok := a.Sell(130); ok {
		t.Error("sell while flat should be ignored")
	}
	assertClose(t, "equity flat", a.Equity(999), 12000, 1e-9)
}

func TestAccount_LosingTrade(t *testing.T) {
	a := NewAccount(1000)
	a.Buy(50)
	pnl, _ := a.Sell(40)
	assertClose(t, "pnl %", pnl, -20, 1e-12)
	assertClose(t, "cash", a.Cash(), 800, 1e-9)
}

func TestDrawdown(t *testing.T) {
	var d Drawdown
	for _, eq := range []float64{100, 120, 90, 110, 130, 117} {
		d.Observe(eq)
	}
	// deepest: (120-90)/120 = 25%
	assertClose(t, "max", d.Max(), 25, 1e-12)
	assertClose(t, "peak", d.Peak(), 130, 0)
	assertClose(t, "current", d.Observe(104), 20, 1e-12)
}

func TestDrawdown_Monotonic(t *testing.T) {
	var d Drawdown
	for _, eq := range []float64{100, 101, 102} {
		if dd := d.Observe(eq); dd != 0 {
			t.Errorf("rising equity should have no drawdown, got %v", dd)
		}
	}
	if d.Max() != 0 {
		t.Errorf("expected 0 max drawdown, got %v", d.Max())
	}
}
