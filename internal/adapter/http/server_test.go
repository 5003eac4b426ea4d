package http_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/beachhub-recommender/internal/adapter/http"
	"github.com/couchcryptid/beachhub-recommender/internal/adapter/memory"
	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"github.com/couchcryptid/beachhub-recommender/internal/pipeline"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type failingEvents struct{}

func (failingEvents) FetchEvents(context.Context, string) ([]domain.Event, error) {
	return nil, domain.ErrSourceUnavailable
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		TraceID string `json:"traceId"`
	} `json:"error"`
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	return newServerWith(t, readyErr, nil)
}

func newServerWith(t *testing.T, readyErr error, events domain.EventSource) *httpadapter.Server {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewSeededStore(clock)
	if events == nil {
		events = store
	}
	orch := pipeline.NewOrchestrator(store, store, store, logger, observability.NewMetricsForTesting())

	return httpadapter.NewServer(":0", httpadapter.Deps{
		Catalog:      store,
		Observations: store,
		Alerts:       store,
		Events:       events,
		Recommender:  orch,
		Ready:        &mockReadiness{err: readyErr},
		CORSOrigins:  []string{"http://localhost:5173"},
		Clock:        clock,
	}, logger)
}

func get(t *testing.T, srv http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(t, errors.New("not ready yet")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListBeaches(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/beaches")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode[struct {
		Data []domain.Beach `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}](t, rec)
	assert.Equal(t, 3, body.Meta.Count)
	require.Len(t, body.Data, 3)
	assert.Equal(t, "haeundae", body.Data[0].ID)
}

func TestGetBeach(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/beaches/gwangalli")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Gwangalli Beach", decode[domain.Beach](t, rec).Name)

	rec = get(t, srv, "/beaches/waikiki", httpadapter.TraceHeader, "trace-404")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "Beach not found", body.Error.Code)
	assert.Equal(t, "Beach not found", body.Error.Message)
	assert.Equal(t, "trace-404", body.Error.TraceID)
}

func TestGetObservation(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/beaches/haeundae/observations")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Data domain.Observation `json:"data"`
		Meta domain.Metadata    `json:"meta"`
	}](t, rec)
	assert.InDelta(t, 23.8, body.Data.SeaSurfaceTemp, 1e-9)
	assert.Equal(t, memory.MarineSource, body.Meta.Source)
	assert.Equal(t, domain.ReliabilityHigh, body.Meta.Reliability)
	assert.True(t, now.Equal(body.Meta.UpdatedAt))

	rec = get(t, srv, "/beaches/waikiki/observations")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAlerts(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/beaches/haeundae/alerts")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Data []domain.Alert  `json:"data"`
		Meta domain.Metadata `json:"meta"`
	}](t, rec)
	assert.Len(t, body.Data, 2)
	assert.Equal(t, memory.SafetySource, body.Meta.Source)

	rec = get(t, srv, "/beaches/jungmun/alerts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = get(t, srv, "/beaches/waikiki/alerts")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEvents(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/events?region=busan")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Data []domain.Event `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}](t, rec)
	assert.Equal(t, 2, body.Meta.Count)

	rec = get(t, srv, "/events?region=jeju")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListEvents_SourceUnavailable(t *testing.T) {
	srv := newServerWith(t, nil, failingEvents{})

	rec := get(t, srv, "/events")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "source_unavailable", decode[errorBody](t, rec).Error.Code)
}

type recommendationBody struct {
	Data []domain.RecommendationItem `json:"data"`
	Meta struct {
		Count       int       `json:"count"`
		GeneratedAt time.Time `json:"generatedAt"`
	} `json:"meta"`
}

func TestRecommendations_Defaults(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/recommendations")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[recommendationBody](t, rec)
	assert.Equal(t, 3, body.Meta.Count)
	assert.True(t, now.Equal(body.Meta.GeneratedAt))
	require.Len(t, body.Data, 3)
	for _, item := range body.Data {
		assert.GreaterOrEqual(t, item.Score, 0.0)
		assert.LessOrEqual(t, item.Score, 1.0)
		assert.Equal(t, domain.CompositeSource, item.Meta.Source)
	}
	assert.Equal(t, "haeundae", body.Data[0].Beach.ID)
	assert.Contains(t, body.Data[0].Reason, "events present")
}

func TestRecommendations_PartyFilter(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/recommendations?party_types=surf&wave_max=1.5&temp_min=20")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[recommendationBody](t, rec)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "haeundae", body.Data[0].Beach.ID)
}

func TestRecommendations_OriginDistance(t *testing.T) {
	// Busan city hall: the Jeju beach is far beyond 50 km.
	rec := get(t, newTestServer(t, nil), "/recommendations?lat=35.1796&lon=129.0756&distance_km=50")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[recommendationBody](t, rec)
	require.Len(t, body.Data, 2)
	for _, item := range body.Data {
		assert.Equal(t, "Busan", item.Beach.Region)
		assert.Less(t, item.DistanceKm, 50.0)
	}
}

func TestRecommendations_InvalidPreferences(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"not a number", "wave_max=high"},
		{"negative wave", "wave_max=-1"},
		{"temp too high", "temp_min=60"},
		{"unknown party", "party_types=yacht"},
		{"lat without lon", "lat=35.1"},
		{"latitude out of range", "lat=91&lon=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, "/recommendations?"+tt.query)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[errorBody](t, rec)
			assert.Equal(t, "invalid_preferences", body.Error.Code)
			assert.Contains(t, body.Error.Message, "invalid preferences")
		})
	}
}

func TestTraceID(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/beaches", httpadapter.TraceHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(httpadapter.TraceHeader))

	rec = get(t, srv, "/beaches", "X-Request-ID", "req-9")
	assert.Equal(t, "req-9", rec.Header().Get(httpadapter.TraceHeader))

	rec = get(t, srv, "/beaches")
	assert.Len(t, rec.Header().Get(httpadapter.TraceHeader), 36)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/beaches", "Origin", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(t, srv, "/beaches", "Origin", "http://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/nope")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Code)
}
