package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/beachhub-recommender/internal/adapter/cache"
	"github.com/couchcryptid/beachhub-recommender/internal/adapter/memory"
	"github.com/couchcryptid/beachhub-recommender/internal/adapter/remote"
	"github.com/couchcryptid/beachhub-recommender/internal/adapter/sqlstore"
	"github.com/couchcryptid/beachhub-recommender/internal/config"
	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

// sources bundles the catalog and the three signal sources of one backend.
type sources struct {
	catalog      domain.BeachCatalog
	observations domain.ObservationSource
	alerts       domain.AlertSource
	events       domain.EventSource
	checkers     []sharedobs.ReadinessChecker
	closers      []func() error
}

func (s *sources) close(logger *slog.Logger) {
	for _, c := range s.closers {
		if err := c(); err != nil {
			logger.Error("source close error", "error", err)
		}
	}
}

// backend is a store that serves the catalog and all three signals.
type backend interface {
	domain.BeachCatalog
	domain.ObservationSource
	domain.AlertSource
	domain.EventSource
	sharedobs.ReadinessChecker
}

// openSources selects the configured backend and wraps it with a cache if enabled.
func openSources(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*sources, error) {
	src := &sources{}

	var b backend
	switch cfg.SourceBackend {
	case config.BackendMemory:
		b = memory.NewSeededStore(clock)
	case config.BackendHTTP:
		b = remote.NewClient(cfg.SourceBaseURL, cfg.SourceTimeout, logger, metrics)
	case config.BackendSQL:
		store, err := sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseURL, clock)
		if err != nil {
			return nil, err
		}
		src.closers = append(src.closers, store.Close)
		if err := store.InitSchema(ctx); err != nil {
			return nil, err
		}
		if cfg.DBSeed {
			if err := store.Seed(ctx, memory.Fixtures(clock.Now())); err != nil {
				return nil, err
			}
			logger.Info("database seeded with demo fixtures")
		}
		b = store
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.SourceBackend)
	}

	src.catalog = b
	src.observations = b
	src.alerts = b
	src.events = b
	src.checkers = append(src.checkers, b)

	var store cache.Store
	switch cfg.CacheBackend {
	case config.CacheNone:
	case config.CacheMemory:
		store = cache.NewLRU(cfg.CacheSize, clock)
	case config.CacheRedis:
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		src.closers = append(src.closers, client.Close)
		redisStore := cache.NewRedisStore(client, "beachhub:")
		src.checkers = append(src.checkers, redisStore)
		store = redisStore
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	if store != nil {
		cached := cache.NewSources(b, b, b, store, cfg.CacheTTL, clock, logger, metrics)
		src.observations = cached
		src.alerts = cached
		src.events = cached
		logger.Info("source cache enabled", "backend", cfg.CacheBackend, "ttl", cfg.CacheTTL)
	}

	logger.Info("sources ready", "backend", cfg.SourceBackend)
	return src, nil
}
