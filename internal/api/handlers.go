package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trading-analytics/internal/analysis"
	"trading-analytics/internal/backtest"
	"trading-analytics/internal/indicator"
	"trading-analytics/internal/marketdata"
	"trading-analytics/internal/metrics"
	"trading-analytics/internal/model"
	rediscache "trading-analytics/internal/store/redis"
	"trading-analytics/internal/strategy"
)

const defaultTF = 86400

func isStrategyError(err error) bool {
	return errors.Is(err, strategy.ErrUnknownStrategy) || errors.Is(err, strategy.ErrInvalidConfig)
}

// resolve returns the request's series: inline bars normalised, or stored
// bars for symbol/tf.
func (s *Server) resolve(ctx context.Context, req SeriesRequest) ([]model.Bar, error) {
	if len(req.Bars) > 0 {
		return marketdata.Normalize(req.Bars)
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("%w: either bars or symbol is required", errBadRequest)
	}
	if s.opts.Reader == nil {
		return nil, fmt.Errorf("%w: no bar store configured, send bars inline", errBadRequest)
	}
	tf := req.TF
	if tf <= 0 {
		tf = defaultTF
	}
	start := time.Now()
	bars, err := marketdata.LoadSQLite(ctx, s.opts.Reader, req.Symbol, tf, req.From)
	s.count(func(m *metrics.Metrics) { m.StoreDur.WithLabelValues("bars").Observe(time.Since(start).Seconds()) })
	return bars, err
}

// cacheKey hashes op together with the resolved series and parameters.
func cacheKey(op string, bars []model.Bar, params any) string {
	key, err := rediscache.KeyFor(op, struct {
		Bars   []model.Bar `json:"bars"`
		Params any         `json:"params"`
	}{bars, params})
	if err != nil {
		return ""
	}
	return key
}

// POST /api/v1/indicators
func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	var req IndicatorsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	specs := req.Specs
	if len(specs) == 0 {
		var err error
		if specs, err = indicator.ParseSpecs(req.Indicators); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	bars, err := s.resolve(r.Context(), req.SeriesRequest)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	key := cacheKey("indicators", bars, specs)
	var resp IndicatorsResponse
	if key != "" && s.cached(r.Context(), key, &resp) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	start := time.Now()
	results, err := indicator.Compute(bars, specs)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.count(func(m *metrics.Metrics) { m.ObserveCompute("indicators", len(bars), start) })

	resp = IndicatorsResponse{Bars: len(bars), Timestamps: make([]int64, len(bars)), Results: results}
	for i, b := range bars {
		resp.Timestamps[i] = b.TS
	}
	if key != "" {
		s.store(r.Context(), key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/v1/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// omitted option fields keep their defaults
	opts := analysis.DefaultOptions()
	req := AnalyzeRequest{Options: &opts}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Options != nil {
		opts = *req.Options
	}
	if err := opts.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	bars, err := s.resolve(r.Context(), req.SeriesRequest)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	key := cacheKey("analyze", bars, opts)
	var a analysis.Analysis
	if key != "" && s.cached(r.Context(), key, &a) {
		writeJSON(w, http.StatusOK, a)
		return
	}

	start := time.Now()
	if a, err = analysis.AnalyzeWith(bars, opts); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	s.count(func(m *metrics.Metrics) { m.ObserveCompute("analyze", len(bars), start) })
	if key != "" {
		s.store(r.Context(), key, a)
	}
	writeJSON(w, http.StatusOK, a)
}

// POST /api/v1/backtest
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	cfg := req.Strategy.WithDefaults()
	if err := cfg.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	bars, err := s.resolve(r.Context(), req.SeriesRequest)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := BacktestResponse{}
	key := cacheKey("backtest", bars, cfg)
	if key != "" && s.cached(r.Context(), key, &resp.Result) {
		resp.Cached = true
	} else {
		start := time.Now()
		if resp.Result, err = backtest.Run(bars, cfg); err != nil {
			writeError(w, r, statusFor(err), err)
			return
		}
		s.count(func(m *metrics.Metrics) {
			m.ObserveCompute("backtest", len(bars), start)
			m.TradesTotal.Add(float64(len(resp.Result.Trades)))
		})
		if key != "" {
			s.store(r.Context(), key, resp.Result)
		}
	}

	if req.Save && s.opts.Store != nil {
		id, err := s.saveRun(r.Context(), symbolOr(req.Symbol), resp.Result)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		resp.RunID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) saveRun(ctx context.Context, symbol string, res *backtest.Result) (string, error) {
	data, err := jsonMarshal(res)
	if err != nil {
		return "", err
	}
	start := time.Now()
	id, err := s.opts.Store.SaveBacktestJSON(ctx, symbol, res.Strategy, data)
	s.count(func(m *metrics.Metrics) { m.StoreDur.WithLabelValues("backtest").Observe(time.Since(start).Seconds()) })
	return id, err
}

func symbolOr(symbol string) string {
	if symbol == "" {
		return "inline"
	}
	return symbol
}

// POST /api/v1/backtest/batch
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(req.Runs) == 0 {
		writeError(w, r, http.StatusBadRequest, errors.New("at least one run is required"))
		return
	}
	bars, err := s.resolve(r.Context(), req.SeriesRequest)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	jobs := make([]backtest.Job, len(req.Runs))
	for i, run := range req.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", run.Kind, i+1)
		}
		jobs[i] = backtest.Job{Name: name, Bars: bars, Config: run.Config}
	}

	start := time.Now()
	outcomes, err := backtest.RunBatch(r.Context(), jobs, s.opts.Workers)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	s.count(func(m *metrics.Metrics) { m.ObserveCompute("backtest_batch", len(bars)*len(jobs), start) })

	resp := BatchResponse{Bars: len(bars), Outcomes: make([]BatchOutcome, len(outcomes))}
	for i, o := range outcomes {
		resp.Outcomes[i] = BatchOutcome{Name: o.Name, Result: o.Result}
		if o.Err != nil {
			resp.Outcomes[i].Error = o.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/v1/runs?symbol=X&limit=N
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.opts.Runs == nil {
		writeError(w, r, http.StatusNotImplemented, errors.New("no run store configured"))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("limit must be in 1..500, got %q", v))
			return
		}
		limit = n
	}
	runs, err := s.opts.Runs.ListRuns(r.Context(), r.URL.Query().Get("symbol"), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GET /api/v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.opts.Runs == nil {
		writeError(w, r, http.StatusNotImplemented, errors.New("no run store configured"))
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid run id %q", id))
		return
	}
	data, err := s.opts.Runs.ReadRun(r.Context(), id)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	s.opts.Health.ServeHTTP(w, r)
}
