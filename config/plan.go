package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trading-analytics/internal/strategy"
)

// Plan is a batch of backtests over one stored series, read from YAML:
//
//	symbol: ACME
//	tf: 86400
//	initial_capital: 25000
//	schedule: "0 0 18 * * 1-5"
//	runs:
//	  - name: golden-cross
//	    kind: sma_crossover
//	    fast_period: 50
//	    slow_period: 200
//	  - name: rsi
//	    kind: rsi_reversal
type Plan struct {
	Symbol         string    `yaml:"symbol"`
	TF             int       `yaml:"tf"`
	From           int64     `yaml:"from"`
	InitialCapital float64   `yaml:"initial_capital"`
	Schedule       string    `yaml:"schedule"` // cron spec with seconds; empty runs once
	Analyze        bool      `yaml:"analyze"`  // also store a structure analysis
	Runs           []PlanRun `yaml:"runs"`
}

// PlanRun is one named strategy configuration within a plan.
type PlanRun struct {
	Name            string `yaml:"name"`
	strategy.Config `yaml:",inline"`
}

// LoadPlan reads a plan from path and applies defaults: the plan-level
// initial capital fills runs that omit one, then per-kind strategy defaults.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes YAML plan data and applies defaults.
func ParsePlan(data []byte) (*Plan, error) {
	p := &Plan{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if p.TF == 0 {
		p.TF = 86400
	}
	for i := range p.Runs {
		r := &p.Runs[i]
		if r.InitialCapital == 0 {
			r.InitialCapital = p.InitialCapital
		}
		r.Config = r.Config.WithDefaults()
		if r.Name == "" {
			r.Name = fmt.Sprintf("%s-%d", r.Kind, i+1)
		}
	}
	return p, nil
}

// Validate reports the first problem in the plan.
func (p *Plan) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("plan: symbol is required")
	}
	if p.TF <= 0 {
		return fmt.Errorf("plan: tf must be positive, got %d", p.TF)
	}
	if len(p.Runs) == 0 {
		return fmt.Errorf("plan: at least one run is required")
	}
	seen := make(map[string]bool, len(p.Runs))
	for i, r := range p.Runs {
		if seen[r.Name] {
			return fmt.Errorf("plan: run %d: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true
		if err := r.Config.Validate(); err != nil {
			return fmt.Errorf("plan: run %d (%s): %w", i, r.Name, err)
		}
	}
	return nil
}
