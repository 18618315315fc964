// Package api exposes the indicator library, the structure analyzer and the
// backtest engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"trading-analytics/internal/analysis"
	"trading-analytics/internal/logger"
	"trading-analytics/internal/metrics"
	"trading-analytics/internal/model"
	rediscache "trading-analytics/internal/store/redis"
	sqlitestore "trading-analytics/internal/store/sqlite"
)

// maxBodyBytes bounds request bodies; inline series are the largest input.
const maxBodyBytes = 16 << 20

// ResultCache is the subset of the Redis cache the handlers use.
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
}

// RunStore lists and reads persisted backtest runs.
type RunStore interface {
	ListRuns(ctx context.Context, symbol string, limit int) ([]sqlitestore.RunInfo, error)
	ReadRun(ctx context.Context, id string) (json.RawMessage, error)
}

// Options wires the server's collaborators. Every field is optional: without
// a Reader only inline bars are accepted, without a Cache nothing is cached.
type Options struct {
	Reader  model.BarReader
	Store   model.ResultStore
	Runs    RunStore
	Cache   ResultCache
	Metrics *metrics.Metrics
	Health  *metrics.HealthStatus
	Workers int // batch concurrency
}

// Server handles HTTP API requests.
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// NewServer creates a new API server instance.
func NewServer(opts Options) *Server {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	s := &Server{opts: opts, mux: http.NewServeMux()}

	s.route("/api/v1/indicators", http.MethodPost, s.handleIndicators)
	s.route("/api/v1/analyze", http.MethodPost, s.handleAnalyze)
	s.route("/api/v1/backtest", http.MethodPost, s.handleBacktest)
	s.route("/api/v1/backtest/batch", http.MethodPost, s.handleBatch)
	s.route("/api/v1/runs", http.MethodGet, s.handleListRuns)
	s.route("/api/v1/runs/", http.MethodGet, s.handleGetRun)
	s.route("/api/v1/health", http.MethodGet, s.handleHealth)
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.traceMiddleware(s.mux))
}

// route registers h for path, rejecting other methods and recording metrics
// under the path as the route label.
func (s *Server) route(path, method string, h http.HandlerFunc) {
	s.mux.Handle(path, s.instrument(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
			return
		}
		h(w, r)
	})))
}

// Middleware

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Trace-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// traceMiddleware propagates X-Trace-Id or assigns a fresh one.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := r.Header.Get("X-Trace-Id")
		if tid == "" {
			tid = logger.NewTraceID()
		}
		w.Header().Set("X-Trace-Id", tid)
		ctx := logger.WithTraceID(r.Context(), tid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		if m := s.opts.Metrics; m != nil {
			m.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
			m.RequestDur.WithLabelValues(route).Observe(elapsed.Seconds())
		}
		args := append([]any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.code),
			slog.Duration("elapsed", elapsed),
		}, logger.LogWithTrace(r.Context())...)
		slog.Info("[api] request", args...)
	})
}

// Helpers

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError {
		log.Printf("[api] error [%d] %s: %v", code, r.URL.Path, err)
	}
	writeJSON(w, code, ErrorResponse{Error: err.Error(), TraceID: logger.TraceID(r.Context())})
}

// errBadRequest marks errors caused by the request body rather than the server.
var errBadRequest = errors.New("bad request")

// statusFor maps an error to its HTTP status: malformed input is 400,
// missing runs 404, and anything else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrEmptySeries),
		errors.Is(err, model.ErrUnordered),
		errors.Is(err, model.ErrInvalidBar),
		errors.Is(err, analysis.ErrInvalidOptions),
		isStrategyError(err):
		return http.StatusBadRequest
	case errors.Is(err, sqlitestore.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

// cached looks key up in the cache. Cache failures are counted and treated
// as misses so a Redis outage never fails a request.
func (s *Server) cached(ctx context.Context, key string, dest any) bool {
	if s.opts.Cache == nil {
		return false
	}
	err := s.opts.Cache.Get(ctx, key, dest)
	switch {
	case err == nil:
		s.count(func(m *metrics.Metrics) { m.CacheHits.Inc() })
		return true
	case errors.Is(err, rediscache.ErrCacheMiss):
		s.count(func(m *metrics.Metrics) { m.CacheMisses.Inc() })
	default:
		s.count(func(m *metrics.Metrics) { m.CacheErrors.Inc() })
		slog.Warn("[api] cache get failed", append([]any{slog.String("error", err.Error())}, logger.LogWithTrace(ctx)...)...)
	}
	return false
}

func (s *Server) store(ctx context.Context, key string, v any) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.Set(ctx, key, v); err != nil {
		s.count(func(m *metrics.Metrics) { m.CacheErrors.Inc() })
		slog.Warn("[api] cache set failed", append([]any{slog.String("error", err.Error())}, logger.LogWithTrace(ctx)...)...)
	}
}

func (s *Server) count(f func(*metrics.Metrics)) {
	if s.opts.Metrics != nil {
		f(s.opts.Metrics)
	}
}

// Start serves the API on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[api] server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		log.Println("[api] server stopped")
		return nil
	}
}

func jsonMarshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}
