package strategy

import (
	"fmt"

	"trading-analytics/internal/indicator"
	"trading-analytics/internal/model"
)

// crossover implements the SMA and EMA crossover strategies.
//
// Buy signal: fast average crosses above slow average (golden cross)
// Sell signal: fast average crosses below slow average (death cross)
type crossover struct {
	kind Kind
	fast int
	slow int
}

func (s *crossover) label() string {
	if s.kind == EMACrossover {
		return "EMA"
	}
	return "SMA"
}

func (s *crossover) Name() string {
	return fmt.Sprintf("%s(%d/%d) crossover", s.label(), s.fast, s.slow)
}

func (s *crossover) average(closes []float64, period int) model.Series {
	if s.kind == EMACrossover {
		return indicator.EMA(closes, period)
	}
	return indicator.SMA(closes, period)
}

func (s *crossover) Generate(bars []model.Bar) []Signal {
	closes := indicator.Closes(bars)
	fast := s.average(closes, s.fast)
	slow := s.average(closes, s.slow)

	out := holdAll(len(bars))
	for i := 1; i < len(bars); i++ {
		if !fast.Defined(i-1) || !slow.Defined(i-1) || !fast.Defined(i) || !slow.Defined(i) {
			continue
		}
		prevFast, prevSlow := fast[i-1], slow[i-1]
		currFast, currSlow := fast[i], slow[i]

		// Golden cross: fast crosses above slow
		if prevFast <= prevSlow && currFast > currSlow {
			out[i] = Signal{Action: ActionBuy, Reason: fmt.Sprintf("Golden cross: %s%d crossed above %s%d", s.label(), s.fast, s.label(), s.slow)}
			continue
		}
		// Death cross: fast crosses below slow
		if prevFast >= prevSlow && currFast < currSlow {
			out[i] = Signal{Action: ActionSell, Reason: fmt.Sprintf("Death cross: %s%d crossed below %s%d", s.label(), s.fast, s.label(), s.slow)}
		}
	}
	return out
}
