package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updated = time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)

type countingSource struct {
	obsCalls, alertCalls, eventCalls int
	err                              error
}

func (c *countingSource) FetchObservation(_ context.Context, id string) (domain.Observation, domain.Metadata, error) {
	c.obsCalls++
	if c.err != nil {
		return domain.Observation{}, domain.Metadata{}, c.err
	}
	return domain.Observation{BeachID: id, WaveHeight: 0.6, ObservedAt: updated},
		domain.Metadata{Source: "mock-marine", UpdatedAt: updated, Reliability: domain.ReliabilityHigh}, nil
}

func (c *countingSource) FetchAlerts(_ context.Context, id string) ([]domain.Alert, domain.Metadata, error) {
	c.alertCalls++
	if c.err != nil {
		return nil, domain.Metadata{}, c.err
	}
	end := updated.Add(time.Hour)
	return []domain.Alert{{BeachID: id, Kind: "rip_current", Severity: domain.SeverityHigh, StartsAt: updated, EndsAt: &end}},
		domain.Metadata{Source: "mock-safety", UpdatedAt: updated, Reliability: domain.ReliabilityMedium}, nil
}

func (c *countingSource) FetchEvents(_ context.Context, region string) ([]domain.Event, error) {
	c.eventCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []domain.Event{{ID: 1, Region: region, Title: "Haeundae Night Busking", StartsAt: updated}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSources(inner *countingSource, store Store) (*Sources, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewSources(inner, inner, inner, store, time.Minute, clockwork.NewFakeClockAt(updated), discardLogger(), m), m
}

func TestSources_ObservationCacheHit(t *testing.T) {
	inner := &countingSource{}
	s, m := newSources(inner, NewLRU(10, clockwork.NewFakeClock()))
	ctx := context.Background()

	obs1, meta1, err := s.FetchObservation(ctx, "haeundae")
	require.NoError(t, err)
	obs2, meta2, err := s.FetchObservation(ctx, "haeundae")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.obsCalls, "should only call inner once")
	assert.Equal(t, obs1, obs2)
	assert.True(t, meta1.UpdatedAt.Equal(meta2.UpdatedAt))
	assert.Equal(t, meta1.Reliability, meta2.Reliability)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("observation", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("observation", "miss")), 0)
}

func TestSources_AlertsAndEventsCacheHit(t *testing.T) {
	inner := &countingSource{}
	s, _ := newSources(inner, NewLRU(10, clockwork.NewFakeClock()))
	ctx := context.Background()

	for range 3 {
		alerts, _, err := s.FetchAlerts(ctx, "haeundae")
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
		require.NotNil(t, alerts[0].EndsAt)

		events, err := s.FetchEvents(ctx, "Busan")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Haeundae Night Busking", events[0].Title)
	}

	assert.Equal(t, 1, inner.alertCalls)
	assert.Equal(t, 1, inner.eventCalls)
}

func TestSources_CachedAlertsExpireWithTheirWindow(t *testing.T) {
	inner := &countingSource{}
	clock := clockwork.NewFakeClockAt(updated)
	s := NewSources(inner, inner, inner, NewLRU(10, clock), 2*time.Hour, clock, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	alerts, _, err := s.FetchAlerts(ctx, "haeundae")
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	clock.Advance(30 * time.Minute)
	alerts, meta, err := s.FetchAlerts(ctx, "haeundae")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.Equal(t, "mock-safety", meta.Source)

	clock.Advance(31 * time.Minute)
	alerts, _, err = s.FetchAlerts(ctx, "haeundae")
	require.NoError(t, err)
	assert.Empty(t, alerts, "alert ended while its entry was cached")
	assert.Equal(t, 1, inner.alertCalls)
}

func TestSources_DifferentKeysMiss(t *testing.T) {
	inner := &countingSource{}
	s, _ := newSources(inner, NewLRU(10, clockwork.NewFakeClock()))

	_, _, _ = s.FetchObservation(context.Background(), "haeundae")
	_, _, _ = s.FetchObservation(context.Background(), "gwangalli")

	assert.Equal(t, 2, inner.obsCalls)
}

func TestSources_ErrorsAreNotCached(t *testing.T) {
	inner := &countingSource{err: domain.ErrSourceUnavailable}
	store := NewLRU(10, clockwork.NewFakeClock())
	s, _ := newSources(inner, store)
	ctx := context.Background()

	_, _, err := s.FetchObservation(ctx, "haeundae")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	_, err = s.FetchEvents(ctx, "Busan")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Zero(t, store.Len())

	inner.err = nil
	_, _, err = s.FetchObservation(ctx, "haeundae")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.obsCalls)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}

func TestSources_StoreFailureFallsThrough(t *testing.T) {
	inner := &countingSource{}
	s, _ := newSources(inner, brokenStore{})

	_, _, err := s.FetchObservation(context.Background(), "haeundae")
	require.NoError(t, err)
	_, _, err = s.FetchObservation(context.Background(), "haeundae")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.obsCalls)
}

func TestRedisStore_UnreachableFallsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "beachhub:")
	_, ok, err := store.Get(context.Background(), "obs:haeundae")
	require.Error(t, err)
	assert.False(t, ok)
	require.Error(t, store.CheckReadiness(context.Background()))

	inner := &countingSource{}
	s, _ := newSources(inner, store)
	_, _, err = s.FetchObservation(context.Background(), "haeundae")
	require.NoError(t, err)
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()

	_, err = NewRedisClient("http://not-redis")
	require.Error(t, err)
}
