// Package cache decorates signal sources with a read-through cache. Only
// successful lookups are stored, so a failing source is retried on the next
// request.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

// Store is a byte-oriented cache with per-entry TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Sources wraps the three signal sources with a shared Store.
type Sources struct {
	observations domain.ObservationSource
	alerts       domain.AlertSource
	events       domain.EventSource
	store        Store
	ttl          time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewSources creates the caching decorator. The clock decides which cached
// alerts are still active when an entry is served.
func NewSources(
	observations domain.ObservationSource,
	alerts domain.AlertSource,
	events domain.EventSource,
	store Store,
	ttl time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Sources {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sources{
		observations: observations,
		alerts:       alerts,
		events:       events,
		store:        store,
		ttl:          ttl,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

type observationEntry struct {
	Observation domain.Observation `json:"observation"`
	Meta        domain.Metadata    `json:"meta"`
}

type alertsEntry struct {
	Alerts []domain.Alert  `json:"alerts"`
	Meta   domain.Metadata `json:"meta"`
}

func (s *Sources) FetchObservation(ctx context.Context, beachID string) (domain.Observation, domain.Metadata, error) {
	key := "obs:" + beachID
	var cached observationEntry
	if s.lookup(ctx, "observation", key, &cached) {
		return cached.Observation, cached.Meta, nil
	}

	obs, meta, err := s.observations.FetchObservation(ctx, beachID)
	if err != nil {
		return obs, meta, err
	}
	s.put(ctx, key, observationEntry{Observation: obs, Meta: meta})
	return obs, meta, nil
}

// FetchAlerts serves cached alerts minus those whose window closed since they were stored.
func (s *Sources) FetchAlerts(ctx context.Context, beachID string) ([]domain.Alert, domain.Metadata, error) {
	key := "alerts:" + beachID
	var cached alertsEntry
	if s.lookup(ctx, "alerts", key, &cached) {
		return activeAt(cached.Alerts, s.clock.Now()), cached.Meta, nil
	}

	alerts, meta, err := s.alerts.FetchAlerts(ctx, beachID)
	if err != nil {
		return alerts, meta, err
	}
	s.put(ctx, key, alertsEntry{Alerts: alerts, Meta: meta})
	return alerts, meta, nil
}

func (s *Sources) FetchEvents(ctx context.Context, region string) ([]domain.Event, error) {
	key := "events:" + region
	var cached []domain.Event
	if s.lookup(ctx, "events", key, &cached) {
		return cached, nil
	}

	events, err := s.events.FetchEvents(ctx, region)
	if err != nil {
		return events, err
	}
	s.put(ctx, key, events)
	return events, nil
}

func activeAt(alerts []domain.Alert, now time.Time) []domain.Alert {
	out := make([]domain.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.ActiveAt(now) {
			out = append(out, a)
		}
	}
	return out
}

// lookup decodes a cached value into dst. Store or decode failures count as a miss.
func (s *Sources) lookup(ctx context.Context, source, key string, dst any) bool {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed", "key", key, "error", err)
	}
	if ok && err == nil {
		if err := json.Unmarshal(data, dst); err == nil {
			s.metrics.CacheLookups.WithLabelValues(source, "hit").Inc()
			return true
		}
		s.logger.Warn("cache entry undecodable", "key", key)
	}
	s.metrics.CacheLookups.WithLabelValues(source, "miss").Inc()
	return false
}

func (s *Sources) put(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("cache set failed", "key", key, "error", err)
	}
}
