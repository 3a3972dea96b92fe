package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/internal/termsvc/handler"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/resilience"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting term service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("term service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("term service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()
	checker := health.NewChecker()
	g, ctx := errgroup.WithContext(ctx)

	var tracker handler.Tracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CompareEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{
			BufferSize: cfg.Kafka.EventBuffer,
		}, analytics.Counters{
			Published: func(n int) { m.EventsPublishedTotal.Add(float64(n)) },
			Dropped:   func(n int) { m.EventsDroppedTotal.Add(float64(n)) },
		})
		tracker = collector
		g.Go(func() error { return collector.Run(ctx) })
		checker.Register("kafka", health.PingCheck(producer.Ping, false))
		slog.Info("comparison events enabled", "topic", cfg.Kafka.Topics.CompareEvents)
	} else {
		checker.Register("kafka", health.Static(health.StatusUp, "disabled"))
	}

	mux := http.NewServeMux()
	handler.New(tracker, m, cfg.Terms).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if cfg.RateLimit.Enabled {
		limiter, closeLimiter := newLimiter(cfg, m, checker)
		defer closeLimiter()
		if ml, ok := limiter.(*ratelimit.MemoryLimiter); ok {
			g.Go(func() error { return ml.Run(ctx) })
		}
		chain = ratelimit.Middleware(limiter, cfg.RateLimit.Window, m.RateLimitedTotal.Inc)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + time.Second,
	}

	g.Go(func() error {
		slog.Info("term service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error { return metrics.Serve(ctx, cfg.Metrics.Port, m) })
	}

	return g.Wait()
}

// newLimiter builds the configured rate limiter. A redis backend that cannot
// be reached at startup falls back to the in-memory limiter.
func newLimiter(cfg *config.Config, m *metrics.Metrics, checker *health.Checker) (ratelimit.Limiter, func()) {
	rl := cfg.RateLimit
	if rl.Backend == "redis" {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err == nil {
			breaker := resilience.NewCircuitBreaker("redis-ratelimit", resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			checker.Register("redis", health.PingCheck(client.Ping, false))
			slog.Info("redis rate limiting enabled", "addr", cfg.Redis.Addr, "limit", rl.RequestsPerWindow, "window", rl.Window)
			return ratelimit.NewRedis(client, breaker, rl.RequestsPerWindow, rl.Window, rl.CallTimeout), func() { client.Close() }
		}
		slog.Warn("redis unavailable, using in-memory rate limiting", "error", err)
		checker.Register("redis", health.Static(health.StatusDegraded, err.Error()))
	}
	slog.Info("in-memory rate limiting enabled", "limit", rl.RequestsPerWindow, "window", rl.Window)
	return ratelimit.NewMemory(rl.RequestsPerWindow, rl.Window), func() {}
}
