package strategy

import (
	"fmt"

	"trading-analytics/internal/indicator"
	"trading-analytics/internal/model"
)

// rsiReversal buys when RSI climbs back through the oversold threshold and
// sells when it drops back through the overbought threshold.
type rsiReversal struct {
	period int
	buy    float64
	sell   float64
}

func (s *rsiReversal) Name() string {
	return fmt.Sprintf("RSI(%d) reversal %g/%g", s.period, s.buy, s.sell)
}

func (s *rsiReversal) Generate(bars []model.Bar) []Signal {
	rsi := indicator.RSI(indicator.Closes(bars), s.period)

	out := holdAll(len(bars))
	for i := 1; i < len(bars); i++ {
		if !rsi.Defined(i-1) || !rsi.Defined(i) {
			continue
		}
		prev, curr := rsi[i-1], rsi[i]
		switch {
		case prev < s.buy && curr >= s.buy:
			out[i] = Signal{Action: ActionBuy, Reason: fmt.Sprintf("RSI crossed above %g (%.1f)", s.buy, curr)}
		case prev > s.sell && curr <= s.sell:
			out[i] = Signal{Action: ActionSell, Reason: fmt.Sprintf("RSI crossed below %g (%.1f)", s.sell, curr)}
		}
	}
	return out
}
