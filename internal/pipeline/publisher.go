package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Snapshotter produces a full set of recommendations.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]domain.RecommendationItem, error)
}

// BatchLoader writes recommendation items to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, items []domain.RecommendationItem) error
}

// Publisher periodically builds a snapshot and hands it to a loader.
type Publisher struct {
	snapshotter Snapshotter
	loader      BatchLoader
	interval    time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// NewPublisher creates a Publisher that runs every interval on the given clock.
func NewPublisher(s Snapshotter, l BatchLoader, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Publisher{
		snapshotter: s,
		loader:      l,
		interval:    interval,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once at least one snapshot has been published.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("publisher has not published a snapshot yet")
	}
	return nil
}

// Run publishes snapshots until the context is cancelled. Failed cycles are
// retried with exponential backoff; successful ones wait for the interval.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("publisher started", "interval", p.interval)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		}

		if err := p.publishOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("publish snapshot failed", "error", err, "retry_in", backoff)
			if !sharedretry.SleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = sharedretry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		select {
		case <-ctx.Done():
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(p.interval):
		}
	}
}

func (p *Publisher) publishOnce(ctx context.Context) error {
	items, err := p.snapshotter.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := p.loader.LoadBatch(ctx, items); err != nil {
		return err
	}
	p.metrics.SnapshotsPublished.Inc()
	p.ready.Store(true)
	p.logger.Info("snapshot published", "items", len(items))
	return nil
}
