// Package metrics exposes Prometheus metrics and a health endpoint for the
// analytics API.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics service.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec   // labels: route, code
	RequestDur    *prometheus.HistogramVec // labels: route

	// Compute metrics
	ComputeDur    *prometheus.HistogramVec // labels: op=indicators|analyze|backtest
	ComputeTotal  *prometheus.CounterVec   // labels: op
	BarsProcessed prometheus.Counter
	TradesTotal   prometheus.Counter

	// Cache metrics
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	CacheErrors  prometheus.Counter
	BreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	BreakerTrips prometheus.Counter

	// Persistence
	StoreDur *prometheus.HistogramVec // labels: op=bars|backtest|analysis
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		ComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_compute_duration_seconds",
			Help:    "Time spent in indicator, analysis and backtest computations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		ComputeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_computations_total",
			Help: "Completed computations by operation",
		}, []string{"op"}),
		BarsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_bars_processed_total",
			Help: "Bars fed into computations",
		}),
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_backtest_trades_total",
			Help: "Trades executed by backtests",
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Result cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Result cache misses",
		}),
		CacheErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_errors_total",
			Help: "Result cache errors (including breaker rejections)",
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_cache_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		StoreDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_store_duration_seconds",
			Help:    "SQLite read/write latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDur,
		m.ComputeDur,
		m.ComputeTotal,
		m.BarsProcessed,
		m.TradesTotal,
		m.CacheHits,
		m.CacheMisses,
		m.CacheErrors,
		m.BreakerState,
		m.BreakerTrips,
		m.StoreDur,
	)

	return m
}

// ObserveCompute records one finished computation of op over bars.
func (m *Metrics) ObserveCompute(op string, bars int, started time.Time) {
	m.ComputeDur.WithLabelValues(op).Observe(time.Since(started).Seconds())
	m.ComputeTotal.WithLabelValues(op).Inc()
	m.BarsProcessed.Add(float64(bars))
}

// BreakerTransition tracks a circuit breaker state change.
func (m *Metrics) BreakerTransition(to int) {
	m.BreakerState.Set(float64(to))
	if to == 1 {
		m.BreakerTrips.Inc()
	}
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisEnabled   bool `json:"redis_enabled"`
	RedisConnected bool `json:"redis_connected"`
	SQLiteOK       bool `json:"sqlite_ok"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// Report is the JSON body served by the health endpoints.
type Report struct {
	Status          string  `json:"status"`
	Uptime          string  `json:"uptime"`
	RedisEnabled    bool    `json:"redis_enabled"`
	RedisConnected  bool    `json:"redis_connected"`
	RedisLatencyMs  float64 `json:"redis_latency_ms"`
	SQLiteOK        bool    `json:"sqlite_ok"`
	SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
	LastCheckAt     string  `json:"last_check_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(redisEnabled bool) *HealthStatus {
	return &HealthStatus{
		RedisEnabled: redisEnabled,
		StartedAt:    time.Now(),
	}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// Probe runs both checks once; nil dependencies are skipped.
func (h *HealthStatus) Probe(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if rdb != nil {
		h.CheckRedis(probeCtx, rdb)
	}
	if sqlDB != nil {
		h.CheckSQLite(probeCtx, sqlDB)
	}
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Probe(ctx, rdb, sqlDB)
			}
		}
	}()
}

// Report returns the current status. SQLite down is unhealthy; Redis down
// (when enabled) is degraded since the cache is optional.
func (h *HealthStatus) Report() (Report, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status, code := "healthy", http.StatusOK
	if h.RedisEnabled && !h.RedisConnected {
		status = "degraded"
	}
	if !h.SQLiteOK {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	lastCheck := ""
	if !h.LastCheckAt.IsZero() {
		lastCheck = h.LastCheckAt.Format(time.RFC3339)
	}
	return Report{
		Status:          status,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     lastCheck,
	}, code
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report, code := h.Report()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(report)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server backed by gatherer.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the server's mux.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
