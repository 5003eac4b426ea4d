// Package remote reads beaches and signals from an upstream BeachHub-compatible
// JSON API. Every call goes through a circuit breaker.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerName labels the circuit breaker metric.
const BreakerName = "remote-source"

// errNotFound marks a 404. It does not count against the breaker.
var errNotFound = errors.New("not found")

// Client implements BeachCatalog and the three signal sources over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewClient creates a client for the API rooted at baseURL, e.g. http://host/api/v1.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
	c.breaker = newBreaker(BreakerName, 30*time.Second, logger, metrics)
	return c
}

func newBreaker(name string, openTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		// Opens when at least 5 requests in the window failed 60% of the time.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logger.Warn("opening circuit breaker", "name", name, "failures", counts.TotalFailures, "failure_rate", ratio)
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// envelope is the upstream response shape.
type envelope[T any] struct {
	Data T               `json:"data"`
	Meta domain.Metadata `json:"meta"`
}

func (c *Client) ListBeaches(ctx context.Context) ([]domain.Beach, error) {
	var resp envelope[[]domain.Beach]
	if err := c.get(ctx, "/beaches", nil, &resp); err != nil {
		return nil, unavailable(err)
	}
	return resp.Data, nil
}

func (c *Client) GetBeach(ctx context.Context, id string) (domain.Beach, error) {
	var b domain.Beach
	err := c.get(ctx, "/beaches/"+url.PathEscape(id), nil, &b)
	if errors.Is(err, errNotFound) {
		return domain.Beach{}, fmt.Errorf("beach %q: %w", id, domain.ErrBeachNotFound)
	}
	if err != nil {
		return domain.Beach{}, unavailable(err)
	}
	return b, nil
}

func (c *Client) FetchObservation(ctx context.Context, beachID string) (domain.Observation, domain.Metadata, error) {
	var resp envelope[domain.Observation]
	if err := c.get(ctx, "/beaches/"+url.PathEscape(beachID)+"/observations", nil, &resp); err != nil {
		return domain.Observation{}, domain.Metadata{}, unavailable(err)
	}
	if resp.Data.BeachID == "" {
		resp.Data.BeachID = beachID
	}
	return resp.Data, resp.Meta, nil
}

// FetchAlerts treats an unknown beach as having no alerts.
func (c *Client) FetchAlerts(ctx context.Context, beachID string) ([]domain.Alert, domain.Metadata, error) {
	var resp envelope[[]domain.Alert]
	err := c.get(ctx, "/beaches/"+url.PathEscape(beachID)+"/alerts", nil, &resp)
	if errors.Is(err, errNotFound) {
		return []domain.Alert{}, domain.Metadata{Source: BreakerName, UpdatedAt: c.now(), Reliability: domain.ReliabilityLow}, nil
	}
	if err != nil {
		return nil, domain.Metadata{}, unavailable(err)
	}
	for _, a := range resp.Data {
		if !a.Severity.Valid() {
			return nil, domain.Metadata{}, unavailable(fmt.Errorf("alert %q for %s: unknown severity %q", a.Kind, beachID, a.Severity))
		}
	}
	if resp.Data == nil {
		resp.Data = []domain.Alert{}
	}
	return resp.Data, resp.Meta, nil
}

func (c *Client) FetchEvents(ctx context.Context, region string) ([]domain.Event, error) {
	var params url.Values
	if region != "" {
		params = url.Values{"region": {region}}
	}
	var resp envelope[[]domain.Event]
	if err := c.get(ctx, "/events", params, &resp); err != nil {
		return nil, unavailable(err)
	}
	return resp.Data, nil
}

// CheckReadiness lists the upstream catalog.
func (c *Client) CheckReadiness(ctx context.Context) error {
	_, err := c.ListBeaches(ctx)
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, u)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("upstream API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}
