package backtest

import (
	"math"

	"trading-analytics/internal/model"
	"trading-analytics/internal/portfolio"
)

// TradingDaysPerYear annualises the per-trade Sharpe ratio.
const TradingDaysPerYear = 252

// Metrics summarises a run. All ratios are percentages except ProfitFactor
// and SharpeRatio.
type Metrics struct {
	TotalReturn  float64      `json:"total_return"`
	MaxDrawdown  float64      `json:"max_drawdown"`
	WinRate      float64      `json:"win_rate"`
	ProfitFactor model.Number `json:"profit_factor"` // +Inf when there are wins and no losses
	SharpeRatio  float64      `json:"sharpe_ratio"`
	TotalTrades  int          `json:"total_trades"` // round trips
	Wins         int          `json:"wins"`
	Losses       int          `json:"losses"`
	FinalEquity  float64      `json:"final_equity"`
}

// ComputeMetrics derives the metrics from the realized round-trip returns
// (percent P&L per trade) and the equity curve. A round trip with exactly 0%
// P&L counts as neither a win nor a loss.
func ComputeMetrics(initial, final float64, roundTrips []float64, equity []EquityPoint) Metrics {
	m := Metrics{
		TotalTrades: len(roundTrips),
		FinalEquity: final,
	}
	if initial != 0 {
		m.TotalReturn = (final - initial) / initial * 100
	}

	var dd portfolio.Drawdown
	for _, p := range equity {
		dd.Observe(p.Equity)
	}
	m.MaxDrawdown = dd.Max()

	grossWin, grossLoss := 0.0, 0.0
	for _, r := range roundTrips {
		switch {
		case r > 0:
			m.Wins++
			grossWin += r
		case r < 0:
			m.Losses++
			grossLoss -= r
		}
	}
	if decided := m.Wins + m.Losses; decided > 0 {
		m.WinRate = float64(m.Wins) / float64(decided) * 100
	}

	switch {
	case grossLoss > 0:
		m.ProfitFactor = model.Number(grossWin / grossLoss)
	case m.Wins > 0:
		m.ProfitFactor = model.Number(math.Inf(1))
	}

	m.SharpeRatio = sharpe(roundTrips)
	return m
}

// sharpe is mean/sample-stdev of the returns scaled by √252, or 0 with fewer
// than two returns or zero dispersion.
func sharpe(returns []float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(n - 1)
	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(TradingDaysPerYear)
}
