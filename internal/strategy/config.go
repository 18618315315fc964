package strategy

import "fmt"

// Kind selects a signal generator.
type Kind string

const (
	SMACrossover    Kind = "sma_crossover"
	EMACrossover    Kind = "ema_crossover"
	RSIReversal     Kind = "rsi_reversal"
	BollingerBounce Kind = "bollinger_bounce"
)

// Kinds lists every supported strategy.
var Kinds = []Kind{SMACrossover, EMACrossover, RSIReversal, BollingerBounce}

// DefaultInitialCapital is used when Config.InitialCapital is zero.
const DefaultInitialCapital = 10000.0

// Config describes one strategy run. Zero fields take per-kind defaults.
type Config struct {
	Kind           Kind    `json:"kind" yaml:"kind"`
	FastPeriod     int     `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod     int     `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
	RSIPeriod      int     `json:"rsi_period,omitempty" yaml:"rsi_period,omitempty"`
	BuyThreshold   float64 `json:"buy_threshold,omitempty" yaml:"buy_threshold,omitempty"`
	SellThreshold  float64 `json:"sell_threshold,omitempty" yaml:"sell_threshold,omitempty"`
	BBPeriod       int     `json:"bb_period,omitempty" yaml:"bb_period,omitempty"`
	InitialCapital float64 `json:"initial_capital,omitempty" yaml:"initial_capital,omitempty"`
}

// WithDefaults fills omitted fields for the configured kind.
func (c Config) WithDefaults() Config {
	switch c.Kind {
	case SMACrossover:
		c.FastPeriod = orInt(c.FastPeriod, 20)
		c.SlowPeriod = orInt(c.SlowPeriod, 50)
	case EMACrossover:
		c.FastPeriod = orInt(c.FastPeriod, 12)
		c.SlowPeriod = orInt(c.SlowPeriod, 26)
	case RSIReversal:
		c.RSIPeriod = orInt(c.RSIPeriod, 14)
		c.BuyThreshold = orFloat(c.BuyThreshold, 30)
		c.SellThreshold = orFloat(c.SellThreshold, 70)
	case BollingerBounce:
		c.BBPeriod = orInt(c.BBPeriod, 20)
	}
	c.InitialCapital = orFloat(c.InitialCapital, DefaultInitialCapital)
	return c
}

// Validate checks the parameters relevant to the configured kind. Call it
// after WithDefaults.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %g", ErrInvalidConfig, c.InitialCapital)
	}
	switch c.Kind {
	case SMACrossover, EMACrossover:
		if c.FastPeriod <= 0 || c.SlowPeriod <= 0 {
			return fmt.Errorf("%w: periods must be positive, got %d/%d", ErrInvalidConfig, c.FastPeriod, c.SlowPeriod)
		}
		if c.FastPeriod >= c.SlowPeriod {
			return fmt.Errorf("%w: fast period %d must be below slow period %d", ErrInvalidConfig, c.FastPeriod, c.SlowPeriod)
		}
	case RSIReversal:
		if c.RSIPeriod <= 0 {
			return fmt.Errorf("%w: rsi period must be positive, got %d", ErrInvalidConfig, c.RSIPeriod)
		}
		if c.BuyThreshold <= 0 || c.SellThreshold >= 100 || c.BuyThreshold >= c.SellThreshold {
			return fmt.Errorf("%w: thresholds need 0 < buy < sell < 100, got %g/%g", ErrInvalidConfig, c.BuyThreshold, c.SellThreshold)
		}
	case BollingerBounce:
		if c.BBPeriod <= 1 {
			return fmt.Errorf("%w: bollinger period must exceed 1, got %d", ErrInvalidConfig, c.BBPeriod)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Kind)
	}
	return nil
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
