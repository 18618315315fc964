// Package strategy turns a bar series into per-bar trading signals.
//
// A Strategy receives the full series and emits exactly one Signal per bar
// (hold/buy/sell). Generators are pure: they look at indicator values only
// and know nothing about positions; the backtest simulator decides which
// signals to act on.
package strategy

import (
	"errors"
	"fmt"

	"trading-analytics/internal/model"
)

var (
	// ErrUnknownStrategy is returned for a Kind with no registered generator.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInvalidConfig is returned when a parameter is out of range.
	ErrInvalidConfig = errors.New("invalid strategy config")
)

// Action represents a trading action.
type Action string

const (
	ActionHold Action = "hold"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Signal is the per-bar output of a strategy.
type Signal struct {
	Action Action `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// Strategy is implemented by every signal generator.
type Strategy interface {
	// Name returns a label including the parameters, e.g. "SMA(20/50) crossover".
	Name() string

	// Generate returns one signal per bar, index-aligned with bars.
	Generate(bars []model.Bar) []Signal
}

// New builds the strategy described by cfg after applying defaults.
func New(cfg Config) (Strategy, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case SMACrossover, EMACrossover:
		return &crossover{kind: cfg.Kind, fast: cfg.FastPeriod, slow: cfg.SlowPeriod}, nil
	case RSIReversal:
		return &rsiReversal{period: cfg.RSIPeriod, buy: cfg.BuyThreshold, sell: cfg.SellThreshold}, nil
	case BollingerBounce:
		return &bollingerBounce{period: cfg.BBPeriod}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Kind)
}

// Signals validates bars, builds the strategy for cfg and runs it.
func Signals(bars []model.Bar, cfg Config) ([]Signal, error) {
	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("signals: %w", err)
	}
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return s.Generate(bars), nil
}

func holdAll(n int) []Signal {
	out := make([]Signal, n)
	for i := range out {
		out[i].Action = ActionHold
	}
	return out
}
