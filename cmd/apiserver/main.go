// cmd/apiserver serves the indicator, analysis and backtest engine over HTTP,
// with Prometheus metrics and health on a separate port.
//
// Usage:
//
//	go run ./cmd/apiserver --plan=plans/daily.yaml
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"trading-analytics/config"
	"trading-analytics/internal/api"
	"trading-analytics/internal/logger"
	"trading-analytics/internal/metrics"
	"trading-analytics/internal/notification"
	"trading-analytics/internal/scheduler"
	rediscache "trading-analytics/internal/store/redis"
	sqlitestore "trading-analytics/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	planPath := flag.String("plan", "", "Optional YAML backtest plan to run on its schedule")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[apiserver] config: %v", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("[apiserver] %v, using info", err)
	}
	logger.Init("apiserver", level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[apiserver] sqlite writer: %v", err)
	}
	defer writer.Close()
	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[apiserver] sqlite reader: %v", err)
	}
	defer reader.Close()

	// Metrics + health
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(cfg.CacheEnabled())

	opts := api.Options{
		Reader:  reader,
		Store:   writer,
		Runs:    reader,
		Metrics: m,
		Health:  health,
		Workers: cfg.BatchWorkers,
	}

	// Cache (optional)
	var rdb *goredis.Client
	if cfg.CacheEnabled() {
		cache, err := rediscache.New(rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			log.Printf("[apiserver] WARNING: cache disabled: %v", err)
		} else {
			defer cache.Close()
			cache.Breaker().OnStateChange = func(from, to rediscache.State) {
				m.BreakerTransition(int(to))
				slog.Warn("[cache] circuit breaker transition", "from", from.String(), "to", to.String())
			}
			rdb = cache.Client()
			opts.Cache = cache
		}
	}

	health.Probe(ctx, rdb, reader.DB())
	health.StartLivenessChecker(ctx, rdb, reader.DB(), 10*time.Second)

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, reg)
	metricsSrv.Start()

	// Scheduled plan (optional)
	if *planPath != "" {
		plan, err := config.LoadPlan(*planPath)
		if err != nil {
			log.Fatalf("[apiserver] %v", err)
		}
		sched := scheduler.New(ctx, reader, writer, cfg.BatchWorkers)
		sched.Notifier = notifiers(cfg)
		if _, err := sched.Register(*planPath, plan); err != nil {
			log.Fatalf("[apiserver] %v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[apiserver] received %v, shutting down", sig)
		cancel()
	}()

	srv := api.NewServer(opts)
	if err := srv.Start(ctx, cfg.HTTPAddr); err != nil {
		log.Printf("[apiserver] server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Stop(shutdownCtx); err != nil {
		log.Printf("[apiserver] metrics shutdown: %v", err)
	}
	log.Println("[apiserver] stopped")
}

func notifiers(cfg *config.Config) notification.Notifier {
	n := notification.Multi{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		n = append(n, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramEnabled() {
		n = append(n, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	return n
}
