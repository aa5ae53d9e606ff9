// Command currentpoint resolves a best-estimate ocean-current vector for a
// fixed target point from NDBC HF radar data and persists it as a JSON
// artifact. With run_interval unset it performs a single run and exits,
// suiting an external cron; with a positive interval it loops internally and
// serves health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/currentpoint/internal/adapter/artifact"
	"github.com/tidewatch/currentpoint/internal/adapter/hfradar"
	httpadapter "github.com/tidewatch/currentpoint/internal/adapter/http"
	kafkaadapter "github.com/tidewatch/currentpoint/internal/adapter/kafka"
	"github.com/tidewatch/currentpoint/internal/config"
	"github.com/tidewatch/currentpoint/internal/observability"
	"github.com/tidewatch/currentpoint/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	fetcher := hfradar.NewClient(cfg.BaseURL, cfg.HTTPTimeout, cfg.MaxRetries, cfg.RetryBaseDelay, clock, metrics, logger)
	store := artifact.NewStore(cfg.OutputPath)

	// Kafka publishing is feature-flagged via kafka_brokers; the file
	// artifact stays the source of truth either way.
	var publisher pipeline.Publisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		kafkaWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = kafkaWriter
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	resolver := pipeline.NewResolver(fetcher, cfg.Target(), cfg.UOM, cfg.Tiers, clock, metrics, logger)
	p := pipeline.New(resolver, store, publisher, cfg.Target(), cfg.UOM, clock, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunInterval <= 0 {
		runOnce(ctx, p, kafkaWriter, logger)
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx, cfg.RunInterval); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeWriter(kafkaWriter, logger)

	logger.Info("shutdown complete")
}

// runOnce performs the one-shot cron deployment. Finding no fresh data is a
// successful run; only failing to persist an artifact exits nonzero.
func runOnce(ctx context.Context, p *pipeline.Pipeline, kafkaWriter *kafkaadapter.Writer, logger *slog.Logger) {
	err := p.RunOnce(ctx)
	closeWriter(kafkaWriter, logger)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
