// Command builder offline-indexes a document source into a persistent
// index directory (index_meta.json, docs.jsonl, postings.bin) that
// cmd/server memory-loads at startup.
//
// Usage:
//
//	go run ./cmd/builder -source=json -input=docs.json -out=./data/index
//	go run ./cmd/builder -source=dir -input=./corpus -out=./data/index
//	go run ./cmd/builder -source=postgres -config=configs/development.yaml -out=./data/index
//	go run ./cmd/builder -source=kafka -config=configs/development.yaml -out=./data/index -idle-timeout=30s
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ksedova/fulltext/internal/fulltext/service"
	"github.com/ksedova/fulltext/internal/ingest"
	"github.com/ksedova/fulltext/pkg/config"
	"github.com/ksedova/fulltext/pkg/logger"
	"github.com/ksedova/fulltext/pkg/metrics"
	"github.com/ksedova/fulltext/pkg/postgres"
)

func main() {
	source := flag.String("source", "json", "document source: json, dir, postgres, kafka")
	input := flag.String("input", "", "path to the input file or directory (json, dir sources)")
	out := flag.String("out", "./data/index", "output index directory")
	configPath := flag.String("config", "configs/development.yaml", "path to config file (postgres, kafka sources)")
	idleTimeout := flag.Duration("idle-timeout", 30*time.Second, "kafka source: time with no new messages before the build is considered complete")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	src, cleanup, err := openSource(ctx, *source, *input, cfg, *idleTimeout)
	if err != nil {
		slog.Error("failed to open document source", "source", *source, "error", err)
		m.IndexBuildsTotal.WithLabelValues("failure").Inc()
		pushBuildMetrics(cfg.Metrics.PushGatewayURL, m)
		os.Exit(1)
	}
	defer cleanup()

	svc := service.New()
	stats, err := ingest.Run(ctx, src, svc, slog.Default())
	if err != nil {
		slog.Error("ingestion aborted", "error", err)
		m.IndexBuildsTotal.WithLabelValues("failure").Inc()
		pushBuildMetrics(cfg.Metrics.PushGatewayURL, m)
		os.Exit(1)
	}
	slog.Info("ingestion complete", "added", stats.Added, "skipped", stats.Skipped)
	m.DocsIndexedTotal.Add(float64(stats.Added))

	if err := svc.Save(*out); err != nil {
		slog.Error("failed to save index", "dir", *out, "error", err)
		m.IndexBuildsTotal.WithLabelValues("failure").Inc()
		pushBuildMetrics(cfg.Metrics.PushGatewayURL, m)
		os.Exit(1)
	}
	slog.Info("index built", "dir", *out, "documents", svc.N(), "avgdl", svc.Avgdl())
	m.IndexBuildsTotal.WithLabelValues("success").Inc()
	pushBuildMetrics(cfg.Metrics.PushGatewayURL, m)
}

// pushBuildMetrics pushes the builder's counters to a Prometheus Pushgateway.
// The builder is a short-lived batch job with nothing for Prometheus to
// scrape, so it pushes instead of serving /metrics. A blank URL (the
// default) skips the push entirely.
func pushBuildMetrics(gatewayURL string, m *metrics.Metrics) {
	if gatewayURL == "" {
		return
	}
	pusher := push.New(gatewayURL, "fulltext_builder").
		Collector(m.DocsIndexedTotal).
		Collector(m.IndexBuildsTotal)
	if err := pusher.Push(); err != nil {
		slog.Warn("failed to push build metrics", "gateway", gatewayURL, "error", err)
	}
}

// openSource constructs the requested ingest.Source, returning a cleanup
// func to release any held resources (database connections, consumers).
func openSource(ctx context.Context, source, input string, cfg *config.Config, idleTimeout time.Duration) (ingest.Source, func(), error) {
	switch source {
	case "json":
		if input == "" {
			return nil, nil, fmt.Errorf("-input is required for source=json")
		}
		src, err := ingest.NewJSONFileSource(input)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil

	case "dir":
		if input == "" {
			return nil, nil, fmt.Errorf("-input is required for source=dir")
		}
		src, err := ingest.NewDirSource(input, nil)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil

	case "postgres":
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		src, err := ingest.NewPostgresSource(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return src, func() { db.Close() }, nil

	case "kafka":
		src := ingest.NewKafkaSource(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, idleTimeout, slog.Default())
		src.Run(ctx)
		return src, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown source %q (want json, dir, postgres, kafka)", source)
	}
}
