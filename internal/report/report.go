// Package report renders analysis and backtest results as fixed-width text
// for the command-line tools.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trading-analytics/internal/analysis"
	"trading-analytics/internal/backtest"
	"trading-analytics/internal/model"
)

const boxWidth = 46

// Money formats v with two decimals.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return number(v)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Pct formats a percentage with two decimals and a sign.
func Pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return number(v)
	}
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// Ratio formats a unitless ratio such as the profit factor.
func Ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return number(v)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func number(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	default:
		return "n/a"
	}
}

// box writes a framed block in the style of the CLI summaries.
func box(b *strings.Builder, title string, rows [][2]string) {
	line := strings.Repeat("═", boxWidth)
	fmt.Fprintf(b, "╔%s╗\n", line)
	fmt.Fprintf(b, "║ %-*s ║\n", boxWidth-2, title)
	fmt.Fprintf(b, "╠%s╣\n", line)
	for _, r := range rows {
		fmt.Fprintf(b, "║ %-20s %-*s ║\n", r[0], boxWidth-23, r[1])
	}
	fmt.Fprintf(b, "╚%s╝\n", line)
}

func date(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
}

// RenderBacktest formats one run: a metrics block followed by the trade log.
func RenderBacktest(symbol string, r *backtest.Result) string {
	var b strings.Builder
	m := r.Metrics
	box(&b, fmt.Sprintf("BACKTEST %s %s", symbol, r.Strategy), [][2]string{
		{"Initial capital", Money(r.Config.InitialCapital)},
		{"Final equity", Money(m.FinalEquity)},
		{"Total return", Pct(m.TotalReturn)},
		{"Max drawdown", Pct(-m.MaxDrawdown)},
		{"Round trips", fmt.Sprintf("%d (%d W / %d L)", m.TotalTrades, m.Wins, m.Losses)},
		{"Win rate", decimal.NewFromFloat(m.WinRate).StringFixed(2) + "%"},
		{"Profit factor", Ratio(float64(m.ProfitFactor))},
		{"Sharpe ratio", Ratio(m.SharpeRatio)},
	})

	if len(r.Trades) == 0 {
		b.WriteString("  no trades\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  %-4s %-16s %-5s %12s %12s %9s  %s\n", "#", "time", "side", "price", "shares", "pnl", "reason")
	for i, t := range r.Trades {
		pnl := ""
		if t.PnLPct != nil {
			pnl = Pct(*t.PnLPct)
		}
		fmt.Fprintf(&b, "  %-4d %-16s %-5s %12s %12s %9s  %s\n",
			i+1, date(t.TS), t.Side, Money(t.Price),
			decimal.NewFromFloat(t.Shares).Round(4).String(), pnl, t.Reason)
	}
	return b.String()
}

// RenderBatch formats a comparison table of batch outcomes in job order.
func RenderBatch(symbol string, outcomes []backtest.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BATCH %s (%d runs)\n", symbol, len(outcomes))
	fmt.Fprintf(&b, "  %-24s %10s %10s %8s %8s %8s\n", "run", "return", "max dd", "trades", "win%", "sharpe")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(&b, "  %-24s error: %v\n", o.Name, o.Err)
			continue
		}
		m := o.Result.Metrics
		fmt.Fprintf(&b, "  %-24s %10s %10s %8d %8s %8s\n",
			o.Name, Pct(m.TotalReturn), Pct(-m.MaxDrawdown), m.TotalTrades,
			decimal.NewFromFloat(m.WinRate).StringFixed(1), Ratio(m.SharpeRatio))
	}
	return b.String()
}

// RenderAnalysis formats the structure read and the indicator snapshot.
func RenderAnalysis(symbol string, a analysis.Analysis) string {
	var b strings.Builder
	rows := [][2]string{
		{"Bars", fmt.Sprintf("%d", a.Bars)},
		{"Trend", fmt.Sprintf("%s (strength %d)", a.Trend.Direction, a.Trend.Strength)},
		{"Sentiment", fmt.Sprintf("%d", a.Score)},
		{"Recommendation", string(a.Recommendation)},
	}
	if s := a.Indicators; s != nil {
		rows = append(rows,
			[2]string{"Close", Money(s.Close)},
			[2]string{"RSI(14)", optional(s.RSI)},
			[2]string{"SMA(20)", optional(s.SMA20)},
			[2]string{"SMA(50)", optional(s.SMA50)},
			[2]string{"ATR(14)", optional(s.ATR)},
		)
	}
	box(&b, "ANALYSIS "+symbol, rows)

	if len(a.Levels) > 0 {
		b.WriteString("  Levels\n")
		for _, l := range a.Levels {
			fmt.Fprintf(&b, "    %-10s %12s  touches %d  strength %d\n", l.Side, Money(l.Price), l.Touches, l.Strength)
		}
	}
	if len(a.Trendlines) > 0 {
		b.WriteString("  Trendlines\n")
		for _, t := range a.Trendlines {
			fmt.Fprintf(&b, "    %-10s %s → %s  R² %s\n", t.Side, Money(t.StartPrice), Money(t.EndPrice),
				decimal.NewFromFloat(t.Fit.R2).StringFixed(3))
		}
	}
	if len(a.Patterns) > 0 {
		b.WriteString("  Patterns\n")
		for _, p := range a.Patterns {
			fmt.Fprintf(&b, "    %-16s %-8s %s%%\n", p.Name, p.Bias, decimal.NewFromFloat(p.Confidence).StringFixed(1))
		}
	}
	if s := a.Indicators; s != nil && len(s.Fibonacci.Retracements) > 0 {
		b.WriteString("  Fibonacci\n")
		for _, l := range s.Fibonacci.Retracements {
			fmt.Fprintf(&b, "    %-7s %12s\n", l.Label, Money(l.Price))
		}
	}
	fmt.Fprintf(&b, "  %s\n", a.Summary)
	return b.String()
}

func optional(n model.Number) string {
	v := float64(n)
	if math.IsNaN(v) {
		return "n/a"
	}
	return Money(v)
}
