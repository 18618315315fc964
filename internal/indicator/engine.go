package indicator

import (
	"fmt"
	"strconv"
	"strings"

	"trading-analytics/internal/model"
)

// Spec selects a single indicator to compute, e.g. {Type: "SMA", Period: 20}.
// Period 0 means the indicator's default.
type Spec struct {
	Type   string `json:"type" yaml:"type"` // SMA, EMA, RSI, ATR, BB, MACD, VWAP, OBV, STOCHRSI, ICHIMOKU, HA
	Period int    `json:"period,omitempty" yaml:"period,omitempty"`
}

// Name returns the spec label used as a result prefix ("SMA_20", "VWAP").
func (s Spec) Name() string {
	p := s.effectivePeriod()
	if p == 0 {
		return s.Type
	}
	return s.Type + "_" + strconv.Itoa(p)
}

func (s Spec) effectivePeriod() int {
	if s.Period > 0 {
		return s.Period
	}
	switch s.Type {
	case "RSI":
		return DefaultRSIPeriod
	case "ATR":
		return DefaultATRPeriod
	case "BB":
		return DefaultBBPeriod
	case "STOCHRSI":
		return DefaultStochRSIPeriod
	}
	return 0
}

// Result is one named output line.
type Result struct {
	Name   string       `json:"name"`
	Values model.Series `json:"values"`
}

// DefaultSpecs is the set computed when the caller does not choose.
func DefaultSpecs() []Spec {
	return []Spec{
		{Type: "SMA", Period: 20},
		{Type: "SMA", Period: 50},
		{Type: "EMA", Period: 9},
		{Type: "EMA", Period: 21},
		{Type: "RSI", Period: DefaultRSIPeriod},
	}
}

// ParseSpecs parses "TYPE[:PERIOD],..." such as "SMA:20,EMA:9,MACD,BB:20".
// An empty string yields DefaultSpecs. MACD, VWAP, OBV, ICHIMOKU and HA run
// with fixed parameters and reject a period.
func ParseSpecs(s string) ([]Spec, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultSpecs(), nil
	}
	var specs []Spec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens := strings.SplitN(part, ":", 2)
		spec := Spec{Type: strings.ToUpper(strings.TrimSpace(tokens[0]))}
		if len(tokens) == 2 {
			period, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
			if err != nil || period <= 0 {
				return nil, fmt.Errorf("indicator spec %q: invalid period", part)
			}
			spec.Period = period
		}
		if err := spec.validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (s Spec) validate() error {
	switch s.Type {
	case "SMA", "EMA":
		if s.Period <= 0 {
			return fmt.Errorf("indicator %s requires a period", s.Type)
		}
	case "RSI", "ATR", "BB", "STOCHRSI":
	case "MACD", "VWAP", "OBV", "ICHIMOKU", "HA":
		if s.Period != 0 {
			return fmt.Errorf("indicator %s takes no period, got %d", s.Type, s.Period)
		}
	default:
		return fmt.Errorf("unknown indicator type %q", s.Type)
	}
	return nil
}

// Compute evaluates every spec over bars. Multi-line indicators expand into
// one Result per line, suffixed with the line name ("BB_20_upper").
func Compute(bars []model.Bar, specs []Spec) ([]Result, error) {
	closes := Closes(bars)
	results := make([]Result, 0, len(specs))
	for _, spec := range specs {
		if err := spec.validate(); err != nil {
			return nil, err
		}
		name := spec.Name()
		period := spec.effectivePeriod()

		switch spec.Type {
		case "SMA":
			results = append(results, Result{Name: name, Values: SMA(closes, period)})
		case "EMA":
			results = append(results, Result{Name: name, Values: EMA(closes, period)})
		case "RSI":
			results = append(results, Result{Name: name, Values: RSI(closes, period)})
		case "ATR":
			results = append(results, Result{Name: name, Values: ATR(bars, period)})
		case "VWAP":
			results = append(results, Result{Name: name, Values: VWAP(bars)})
		case "OBV":
			results = append(results, Result{Name: name, Values: OBV(bars)})
		case "BB":
			bb := BollingerBands(closes, period, DefaultBBMultiplier)
			results = append(results,
				Result{Name: name + "_upper", Values: bb.Upper},
				Result{Name: name + "_middle", Values: bb.Middle},
				Result{Name: name + "_lower", Values: bb.Lower},
			)
		case "MACD":
			m := MACDDefault(closes)
			results = append(results,
				Result{Name: name + "_macd", Values: m.MACD},
				Result{Name: name + "_signal", Values: m.Signal},
				Result{Name: name + "_histogram", Values: m.Histogram},
			)
		case "STOCHRSI":
			st := StochasticRSI(closes, period, DefaultStochPeriod, DefaultStochKSmooth, DefaultStochDSmooth)
			results = append(results,
				Result{Name: name + "_k", Values: st.K},
				Result{Name: name + "_d", Values: st.D},
			)
		case "ICHIMOKU":
			ic := IchimokuDefault(bars)
			results = append(results,
				Result{Name: name + "_tenkan", Values: ic.Tenkan},
				Result{Name: name + "_kijun", Values: ic.Kijun},
				Result{Name: name + "_span_a", Values: ic.SpanA},
				Result{Name: name + "_span_b", Values: ic.SpanB},
				Result{Name: name + "_chikou", Values: ic.Chikou},
			)
		case "HA":
			ha := HeikinAshi(bars)
			lines := [4]model.Series{model.NewSeries(len(ha)), model.NewSeries(len(ha)), model.NewSeries(len(ha)), model.NewSeries(len(ha))}
			for i, b := range ha {
				lines[0][i], lines[1][i], lines[2][i], lines[3][i] = b.Open, b.High, b.Low, b.Close
			}
			results = append(results,
				Result{Name: name + "_open", Values: lines[0]},
				Result{Name: name + "_high", Values: lines[1]},
				Result{Name: name + "_low", Values: lines[2]},
				Result{Name: name + "_close", Values: lines[3]},
			)
		}
	}
	return results, nil
}
