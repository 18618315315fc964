// Package backtest replays a bar series through a strategy with a single
// long-only position and reports the trades, the equity curve and the
// performance metrics.
package backtest

import (
	"fmt"

	"trading-analytics/internal/model"
	"trading-analytics/internal/portfolio"
	"trading-analytics/internal/strategy"
)

// ReasonEndOfPeriod marks the forced exit on the final bar.
const ReasonEndOfPeriod = "End of period"

// Trade is one executed fill. Buys and sells strictly alternate.
type Trade struct {
	Side   strategy.Action `json:"side"` // buy or sell
	Index  int             `json:"index"`
	TS     int64           `json:"ts"`
	Price  float64         `json:"price"`
	Shares float64         `json:"shares"`
	Reason string          `json:"reason"`
	PnLPct *float64        `json:"pnl_pct,omitempty"` // sells only
}

// EquityPoint is the account value at the close of one bar.
type EquityPoint struct {
	TS     int64   `json:"ts"`
	Equity float64 `json:"equity"`
}

// Result is the full output of one run.
type Result struct {
	Strategy string          `json:"strategy"`
	Config   strategy.Config `json:"config"`
	Trades   []Trade         `json:"trades"`
	Equity   []EquityPoint   `json:"equity"`
	Metrics  Metrics         `json:"metrics"`
}

// Run executes cfg's strategy over bars. Buys are taken only when flat and
// convert all capital at the bar's close; sells only when long. Redundant
// signals are ignored. A position still open on the last bar is closed at its
// close with reason "End of period". The equity curve has one point per bar.
func Run(bars []model.Bar, cfg strategy.Config) (*Result, error) {
	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	cfg = cfg.WithDefaults()
	strat, err := strategy.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	signals := strat.Generate(bars)

	acct := portfolio.NewAccount(cfg.InitialCapital)
	res := &Result{
		Strategy: strat.Name(),
		Config:   cfg,
		Trades:   make([]Trade, 0, 16),
		Equity:   make([]EquityPoint, len(bars)),
	}
	var roundTrips []float64

	sell := func(i int, reason string) {
		shares := acct.Shares()
		pnl, ok := acct.Sell(bars[i].Close)
		if !ok {
			return
		}
		roundTrips = append(roundTrips, pnl)
		res.Trades = append(res.Trades, Trade{
			Side: strategy.ActionSell, Index: i, TS: bars[i].TS, Price: bars[i].Close,
			Shares: shares, Reason: reason, PnLPct: &pnl,
		})
	}

	last := len(bars) - 1
	for i, b := range bars {
		sig := signals[i]
		switch sig.Action {
		case strategy.ActionBuy:
			if acct.Buy(b.Close) {
				res.Trades = append(res.Trades, Trade{
					Side: strategy.ActionBuy, Index: i, TS: b.TS, Price: b.Close,
					Shares: acct.Shares(), Reason: sig.Reason,
				})
			}
		case strategy.ActionSell:
			sell(i, sig.Reason)
		}
		if i == last && acct.Long() {
			sell(i, ReasonEndOfPeriod)
		}
		res.Equity[i] = EquityPoint{TS: b.TS, Equity: acct.Equity(b.Close)}
	}

	res.Metrics = ComputeMetrics(cfg.InitialCapital, acct.Equity(bars[last].Close), roundTrips, res.Equity)
	return res, nil
}
