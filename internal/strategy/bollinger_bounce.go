package strategy

import (
	"fmt"

	"trading-analytics/internal/indicator"
	"trading-analytics/internal/model"
)

// bollingerBounce buys a close at or below the lower band and sells a close
// at or above the upper band. Bands use the fixed 2σ multiplier, so a flat
// window (upper == lower == close) reads as a buy.
type bollingerBounce struct {
	period int
}

func (s *bollingerBounce) Name() string {
	return fmt.Sprintf("Bollinger(%d, %g) bounce", s.period, indicator.DefaultBBMultiplier)
}

func (s *bollingerBounce) Generate(bars []model.Bar) []Signal {
	bb := indicator.BollingerBands(indicator.Closes(bars), s.period, indicator.DefaultBBMultiplier)

	out := holdAll(len(bars))
	for i, b := range bars {
		if !bb.Lower.Defined(i) || !bb.Upper.Defined(i) {
			continue
		}
		switch {
		case b.Close <= bb.Lower[i]:
			out[i] = Signal{Action: ActionBuy, Reason: fmt.Sprintf("Close %.2f at or below lower band %.2f", b.Close, bb.Lower[i])}
		case b.Close >= bb.Upper[i]:
			out[i] = Signal{Action: ActionSell, Reason: fmt.Sprintf("Close %.2f at or above upper band %.2f", b.Close, bb.Upper[i])}
		}
	}
	return out
}
