// Package scheduler runs backtest plans against stored bars, once or on a
// cron schedule, and persists every result.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"trading-analytics/config"
	"trading-analytics/internal/analysis"
	"trading-analytics/internal/backtest"
	"trading-analytics/internal/marketdata"
	"trading-analytics/internal/model"
	"trading-analytics/internal/notification"
	"trading-analytics/internal/report"
)

// RunReport summarises one execution of a plan.
type RunReport struct {
	Plan       string             `json:"plan"`
	Bars       int                `json:"bars"`
	Outcomes   []backtest.Outcome `json:"outcomes"`
	RunIDs     map[string]string  `json:"run_ids"` // run name → stored id
	AnalysisID string             `json:"analysis_id,omitempty"`
	Failed     int                `json:"failed"`
}

// Scheduler manages plan executions.
type Scheduler struct {
	Cron    *cron.Cron
	Reader  model.BarReader
	Store   model.ResultStore
	Workers int
	Ctx     context.Context

	// Notifier receives an alert after every scheduled execution (optional).
	Notifier notification.Notifier

	// OnReport is called after every scheduled execution (optional).
	OnReport func(*RunReport, error)

	mu sync.Mutex // serialises executions of the same scheduler
}

// New creates a Scheduler whose cron specs carry a seconds field.
func New(ctx context.Context, reader model.BarReader, store model.ResultStore, workers int) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Reader:  reader,
		Store:   store,
		Workers: workers,
		Ctx:     ctx,
	}
}

// Register validates plan and adds it to the cron table under its schedule.
func (s *Scheduler) Register(name string, plan *config.Plan) (cron.EntryID, error) {
	if err := plan.Validate(); err != nil {
		return 0, err
	}
	if plan.Schedule == "" {
		return 0, fmt.Errorf("register %s: plan has no schedule", name)
	}
	id, err := s.Cron.AddFunc(plan.Schedule, func() {
		rep, err := s.RunPlan(s.Ctx, name, plan)
		if err != nil {
			log.Printf("[scheduler] plan %s failed: %v", name, err)
		}
		if s.Notifier != nil {
			if nerr := s.Notifier.Send(s.Ctx, Alert(name, plan, rep, err)); nerr != nil {
				log.Printf("[scheduler] notify %s: %v", name, nerr)
			}
		}
		if s.OnReport != nil {
			s.OnReport(rep, err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("register %s: %w", name, err)
	}
	log.Printf("[scheduler] plan %s registered (%s, %d runs)", name, plan.Schedule, len(plan.Runs))
	return id, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[scheduler] started")
}

// Stop stops the cron scheduler and waits for a running plan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[scheduler] stopped")
}

// RunPlan loads the plan's series, runs every strategy as a batch and stores
// each successful result. Failed runs are counted, not fatal. Errors are
// returned only for loading, cancellation or storage failures.
func (s *Scheduler) RunPlan(ctx context.Context, name string, plan *config.Plan) (*RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bars, err := marketdata.LoadSQLite(ctx, s.Reader, plan.Symbol, plan.TF, plan.From)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", name, err)
	}

	jobs := make([]backtest.Job, len(plan.Runs))
	for i, r := range plan.Runs {
		jobs[i] = backtest.Job{Name: r.Name, Bars: bars, Config: r.Config}
	}
	outcomes, err := backtest.RunBatch(ctx, jobs, s.Workers)
	rep := &RunReport{Plan: name, Bars: len(bars), Outcomes: outcomes, RunIDs: make(map[string]string, len(outcomes))}
	if err != nil {
		return rep, fmt.Errorf("plan %s: %w", name, err)
	}

	for _, o := range outcomes {
		if o.Err != nil {
			rep.Failed++
			log.Printf("[scheduler] plan %s run %s: %v", name, o.Name, o.Err)
			continue
		}
		data, err := json.Marshal(o.Result)
		if err != nil {
			return rep, fmt.Errorf("plan %s: encode %s: %w", name, o.Name, err)
		}
		id, err := s.Store.SaveBacktestJSON(ctx, plan.Symbol, o.Result.Strategy, data)
		if err != nil {
			return rep, fmt.Errorf("plan %s: save %s: %w", name, o.Name, err)
		}
		rep.RunIDs[o.Name] = id
	}

	if plan.Analyze {
		a, err := analysis.Analyze(bars)
		if err != nil {
			return rep, fmt.Errorf("plan %s: %w", name, err)
		}
		data, err := json.Marshal(a)
		if err != nil {
			return rep, fmt.Errorf("plan %s: encode analysis: %w", name, err)
		}
		if rep.AnalysisID, err = s.Store.SaveAnalysisJSON(ctx, plan.Symbol, data); err != nil {
			return rep, fmt.Errorf("plan %s: save analysis: %w", name, err)
		}
	}

	log.Printf("[scheduler] plan %s: %d bars, %d runs stored, %d failed",
		name, len(bars), len(rep.RunIDs), rep.Failed)
	return rep, nil
}

// Alert summarises a plan execution: critical when the plan failed, a
// warning when some runs failed, info otherwise.
func Alert(name string, plan *config.Plan, rep *RunReport, err error) notification.Alert {
	a := notification.Alert{
		Level:  notification.AlertInfo,
		Title:  "Backtest plan " + name,
		Fields: map[string]string{"symbol": plan.Symbol, "runs": fmt.Sprintf("%d", len(plan.Runs))},
	}
	if err != nil {
		a.Level = notification.AlertCritical
		a.Message = err.Error()
		return a
	}
	if rep.Failed > 0 {
		a.Level = notification.AlertWarning
	}
	a.Message = fmt.Sprintf("%d bars, %d runs stored, %d failed", rep.Bars, len(rep.RunIDs), rep.Failed)
	a.Body = report.RenderBatch(plan.Symbol, rep.Outcomes)
	if rep.AnalysisID != "" {
		a.Fields["analysis"] = rep.AnalysisID
	}
	return a
}
