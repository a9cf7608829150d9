// Command server memory-loads an index directory built by cmd/builder and
// answers ranked search queries over HTTP, optionally protected by API-key
// auth and per-key rate limiting.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ksedova/fulltext/internal/analytics"
	"github.com/ksedova/fulltext/internal/auth/apikey"
	"github.com/ksedova/fulltext/internal/auth/ratelimit"
	"github.com/ksedova/fulltext/internal/fulltext/service"
	"github.com/ksedova/fulltext/internal/httpapi"
	"github.com/ksedova/fulltext/internal/rpcapi"
	"github.com/ksedova/fulltext/pkg/config"
	"github.com/ksedova/fulltext/pkg/grpc"
	"github.com/ksedova/fulltext/pkg/health"
	"github.com/ksedova/fulltext/pkg/kafka"
	"github.com/ksedova/fulltext/pkg/logger"
	"github.com/ksedova/fulltext/pkg/metrics"
	"github.com/ksedova/fulltext/pkg/middleware"
	"github.com/ksedova/fulltext/pkg/postgres"
	"github.com/ksedova/fulltext/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting fulltext server", "port", cfg.Server.Port, "index_dir", cfg.Index.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.New()
	if err := svc.Load(cfg.Index.DataDir); err != nil {
		slog.Error("failed to load index", "dir", cfg.Index.DataDir, "error", err)
		os.Exit(1)
	}
	slog.Info("index loaded", "dir", cfg.Index.DataDir, "documents", svc.N(), "avgdl", svc.Avgdl())

	var collector *analytics.Collector
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}

	m := metrics.New()

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if svc.N() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents loaded", svc.N())}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "index is empty"}
	})

	h := httpapi.New(svc, cfg.Index.DataDir, collector, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	h.SetMetrics(m)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/admin/reload", h.Reload)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Auth.Enabled {
		db, err := connectPostgresWithRetry(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("auth enabled but postgres unreachable", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		validator := apikey.NewValidator(db)
		validator.SetLookupTimeout(cfg.Auth.LookupTimeout)
		limiter := ratelimit.New(cfg.Auth.RateLimitWindow)
		chain = middleware.RateLimit(limiter)(chain)
		chain = middleware.Auth(validator)(chain)
		slog.Info("api key auth enabled", "rate_limit_window", cfg.Auth.RateLimitWindow)

		go pollCircuitState(ctx, m, "apikey_validate", validator.CircuitState)
	}

	// CORS must be outermost so preflight/cross-origin headers are set even
	// on requests Auth/RateLimit reject.
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)

	if cfg.Server.RPCPort > 0 {
		rpcServer := grpc.NewServer()
		rpcapi.Register(rpcServer, svc)
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Server.RPCPort)
			slog.Info("internal rpc facade listening", "addr", addr)
			if err := rpcServer.Serve(addr); err != nil {
				slog.Error("rpc server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			rpcServer.Stop()
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("fulltext server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("fulltext server stopped")
}

// pollCircuitState mirrors a circuit breaker's state onto a Prometheus gauge
// until ctx is cancelled, so operators can alert on a breaker tripping open
// without instrumenting every call site that uses it.
func pollCircuitState(ctx context.Context, m *metrics.Metrics, name string, state func() resilience.State) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		m.CircuitBreakerState.WithLabelValues(name).Set(float64(state()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// connectPostgresWithRetry retries the initial connection a few times since
// postgres and the server are commonly started together (e.g. in compose),
// and the server should not require a fixed startup ordering.
func connectPostgresWithRetry(ctx context.Context, cfg config.PostgresConfig) (*postgres.Client, error) {
	var db *postgres.Client
	err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{}, func() error {
		var err error
		db, err = postgres.New(cfg)
		return err
	})
	return db, err
}
