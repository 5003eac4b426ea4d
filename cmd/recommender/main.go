package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/beachhub-recommender/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/beachhub-recommender/internal/adapter/kafka"
	"github.com/couchcryptid/beachhub-recommender/internal/config"
	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"github.com/couchcryptid/beachhub-recommender/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := openSources(ctx, cfg, clock, logger, metrics)
	if err != nil {
		logger.Error("failed to open sources", "backend", cfg.SourceBackend, "error", err)
		os.Exit(1)
	}
	defer src.close(logger)

	eventPolicy, err := pipeline.ParseEventPolicy(cfg.EventFailurePolicy)
	if err != nil {
		logger.Error("invalid event policy", "error", err)
		os.Exit(1)
	}

	orch := pipeline.NewOrchestrator(src.observations, src.alerts, src.events, logger, metrics,
		pipeline.WithSafetyPolicy(domain.SafetyPolicy{
			DefaultMaxWaveHeight: cfg.SafetyDefaultMaxWave,
			DefaultMinTemp:       cfg.SafetyDefaultMinTemp,
			Reliability:          domain.Reliability(cfg.ScorerReliability),
		}),
		pipeline.WithRanker(domain.Ranker{
			Popularity:        cfg.RankPopularity,
			DefaultDistanceKm: cfg.RankDefaultDistance,
		}),
		pipeline.WithEventPolicy(eventPolicy),
		pipeline.WithConcurrency(cfg.BuildConcurrency),
		pipeline.WithLocationTimeout(cfg.LocationTimeout),
	)
	snapshot := pipeline.NewCatalogSnapshot(src.catalog, orch)

	ready := readiness{snapshot}
	ready = append(ready, src.checkers...)

	var (
		publisher *pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = pipeline.NewPublisher(snapshot, writer, cfg.PublishInterval, clock, logger, metrics)
		ready = append(ready, publisher)
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaTopic, "interval", cfg.PublishInterval)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Catalog:      src.catalog,
		Observations: src.observations,
		Alerts:       src.alerts,
		Events:       src.events,
		Recommender:  orch,
		Ready:        ready,
		CORSOrigins:  cfg.CORSOrigins,
		Clock:        clock,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start snapshot publisher.
	if publisher != nil {
		go func() {
			if err := publisher.Run(ctx); err != nil {
				logger.Error("publisher error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness is ready when every checker is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
