package backtest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"trading-analytics/internal/model"
	"trading-analytics/internal/strategy"
)

// Job is one independent backtest in a batch.
type Job struct {
	Name   string          `json:"name"`
	Bars   []model.Bar     `json:"-"`
	Config strategy.Config `json:"config"`
}

// Outcome pairs a job with its result or error.
type Outcome struct {
	Name   string  `json:"name"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// RunBatch runs jobs concurrently on at most workers goroutines. Outcomes keep
// job order and a failing job does not stop the others. Once ctx is done no
// new jobs start and ctx's error is returned alongside the partial outcomes.
func RunBatch(ctx context.Context, jobs []Job, workers int) ([]Outcome, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		out[i].Name = job.Name
		if gctx.Err() != nil {
			out[i].Err = gctx.Err()
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return err
			}
			out[i].Result, out[i].Err = Run(job.Bars, job.Config)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}
