package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(t *testing.T, h http.HandlerFunc) (*Client, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := observability.NewMetricsForTesting()
	c := NewClient(srv.URL+"/api/v1/", 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	return c, m
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_FetchObservation(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/beaches/haeundae/observations", r.URL.Path)
		writeJSON(w, http.StatusOK, `{
			"data": {"beachId":"haeundae","observedAt":"2025-07-01T08:50:00Z","seaSurfaceTemp":23.8,"waveHeight":0.6,"windSpeed":3.2,"tideLevel":0},
			"meta": {"source":"mock-marine","updatedAt":"2025-07-01T09:00:00Z","reliability":2}
		}`)
	})

	obs, meta, err := c.FetchObservation(context.Background(), "haeundae")
	require.NoError(t, err)

	assert.InDelta(t, 23.8, obs.SeaSurfaceTemp, 1e-9)
	assert.InDelta(t, 0.6, obs.WaveHeight, 1e-9)
	assert.Equal(t, "mock-marine", meta.Source)
	assert.Equal(t, domain.ReliabilityHigh, meta.Reliability)
	assert.Equal(t, time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), meta.UpdatedAt.UTC())
}

func TestClient_FetchObservation_ServerError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{"error":{"code":"upstream","message":"down"}}`)
	})

	_, _, err := c.FetchObservation(context.Background(), "haeundae")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_FetchObservation_BadJSON(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":`)
	})

	_, _, err := c.FetchObservation(context.Background(), "haeundae")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestClient_FetchAlerts(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/beaches/waikiki/alerts" {
			writeJSON(w, http.StatusNotFound, `{"error":{"code":"Beach not found"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{
			"data": [{"beachId":"haeundae","alertType":"rip_current","severity":"medium","message":"m","startsAt":"2025-07-01T08:00:00Z","endsAt":null}],
			"meta": {"source":"mock-safety","updatedAt":"2025-07-01T09:00:00Z","reliability":1}
		}`)
	})

	alerts, meta, err := c.FetchAlerts(context.Background(), "haeundae")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, "rip_current", alerts[0].Kind)
	assert.Nil(t, alerts[0].EndsAt)
	assert.Equal(t, domain.ReliabilityMedium, meta.Reliability)

	alerts, _, err = c.FetchAlerts(context.Background(), "waikiki")
	require.NoError(t, err, "unknown beach yields no alerts")
	assert.Empty(t, alerts)
}

func TestClient_FetchAlerts_UnknownSeverity(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"data": [{"beachId":"haeundae","alertType":"rip_current","severity":"severe","startsAt":"2025-07-01T08:00:00Z"}],
			"meta": {"source":"mock-safety","updatedAt":"2025-07-01T09:00:00Z","reliability":1}
		}`)
	})

	_, _, err := c.FetchAlerts(context.Background(), "haeundae")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), `unknown severity "severe"`)
}

func TestClient_FetchEvents(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, "Busan", r.URL.Query().Get("region"))
		writeJSON(w, http.StatusOK, `{"data":[{"id":1,"region":"Busan","title":"Haeundae Night Busking","startsAt":"2025-07-02T19:00:00Z","tags":["night"]}],"meta":{"count":1}}`)
	})

	events, err := c.FetchEvents(context.Background(), "Busan")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, "Haeundae Night Busking", events[0].Title)
}

func TestClient_Catalog(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/beaches":
			writeJSON(w, http.StatusOK, `{"data":[{"id":"haeundae","name":"Haeundae Beach","region":"Busan"}],"meta":{"count":1}}`)
		case "/api/v1/beaches/haeundae":
			writeJSON(w, http.StatusOK, `{"id":"haeundae","name":"Haeundae Beach","region":"Busan"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"error":{"code":"Beach not found"}}`)
		}
	})
	ctx := context.Background()

	beaches, err := c.ListBeaches(ctx)
	require.NoError(t, err)
	require.Len(t, beaches, 1)
	require.NoError(t, c.CheckReadiness(ctx))

	b, err := c.GetBeach(ctx, "haeundae")
	require.NoError(t, err)
	assert.Equal(t, "Busan", b.Region)

	_, err = c.GetBeach(ctx, "waikiki")
	require.ErrorIs(t, err, domain.ErrBeachNotFound)
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int64
	c, m := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusNotFound, `{}`)
	})

	for range 10 {
		_, _, err := c.FetchAlerts(context.Background(), "waikiki")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(10), hits.Load())
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
	assert.InDelta(t, 0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues(BreakerName)), 0)
}

func TestClient_BreakerOpensOnRepeatedFailure(t *testing.T) {
	var hits atomic.Int64
	c, m := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusInternalServerError, `{}`)
	})
	ctx := context.Background()

	for range 5 {
		_, _, err := c.FetchObservation(ctx, "haeundae")
		require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, c.breaker.State())
	assert.InDelta(t, 2, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues(BreakerName)), 0)

	_, err := c.FetchEvents(ctx, "Busan")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int64(5), hits.Load(), "open breaker should short-circuit")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	_, _, err := c.FetchObservation(context.Background(), "haeundae")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
