package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"golang.org/x/sync/errgroup"
)

// EventPolicy decides what happens to a beach whose event lookup fails.
type EventPolicy int

const (
	// EventsDegrade keeps the beach and treats it as having no events.
	EventsDegrade EventPolicy = iota
	// EventsOmit drops the beach, like any other source failure.
	EventsOmit
)

// ParseEventPolicy maps "degrade" or "omit" to an EventPolicy.
func ParseEventPolicy(s string) (EventPolicy, error) {
	switch s {
	case "degrade", "":
		return EventsDegrade, nil
	case "omit":
		return EventsOmit, nil
	default:
		return 0, fmt.Errorf("unknown event failure policy %q", s)
	}
}

// Omission reasons, used as the items_omitted_total label.
const (
	omitParty       = "party"
	omitDistance    = "distance"
	omitObservation = "observation"
	omitAlerts      = "alerts"
	omitEvents      = "events"
	omitMetadata    = "metadata"
	omitTimeout     = "timeout"
)

// Orchestrator runs the per-beach scoring pipeline for a batch of beaches.
type Orchestrator struct {
	observations domain.ObservationSource
	alerts       domain.AlertSource
	events       domain.EventSource

	policy          domain.SafetyPolicy
	ranker          domain.Ranker
	eventPolicy     EventPolicy
	concurrency     int
	locationTimeout time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSafetyPolicy overrides the scorer thresholds.
func WithSafetyPolicy(p domain.SafetyPolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithRanker overrides the ranking parameters.
func WithRanker(r domain.Ranker) Option {
	return func(o *Orchestrator) { o.ranker = r }
}

// WithEventPolicy sets the behavior on event lookup failure.
func WithEventPolicy(p EventPolicy) Option {
	return func(o *Orchestrator) { o.eventPolicy = p }
}

// WithConcurrency bounds the number of beaches processed at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLocationTimeout bounds the source calls made for a single beach.
func WithLocationTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.locationTimeout = d
		}
	}
}

// NewOrchestrator wires the three signal sources into a recommendation pipeline.
func NewOrchestrator(
	observations domain.ObservationSource,
	alerts domain.AlertSource,
	events domain.EventSource,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		observations:    observations,
		alerts:          alerts,
		events:          events,
		policy:          domain.DefaultSafetyPolicy(),
		ranker:          domain.DefaultRanker(),
		eventPolicy:     EventsDegrade,
		concurrency:     8,
		locationTimeout: 3 * time.Second,
		logger:          logger,
		metrics:         metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// BuildRecommendations scores every beach and returns one item per beach that
// completed its pipeline, in input order. Beaches whose sources fail are
// logged and left out; a failure never aborts the batch. A nil prefs is
// treated as no preferences.
func (o *Orchestrator) BuildRecommendations(ctx context.Context, beaches []domain.Beach, prefs *domain.UserPreferences) ([]domain.RecommendationItem, error) {
	if prefs == nil {
		prefs = &domain.UserPreferences{}
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	slots := make([]*domain.RecommendationItem, len(beaches))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, b := range beaches {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			item, reason := o.buildOne(ctx, b, *prefs)
			if item == nil {
				if ctx.Err() == nil {
					o.metrics.ItemsOmitted.WithLabelValues(reason).Inc()
				}
				return nil
			}
			slots[i] = item
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]domain.RecommendationItem, 0, len(beaches))
	for _, item := range slots {
		if item != nil {
			items = append(items, *item)
		}
	}

	o.metrics.RecommendationsBuilt.Inc()
	o.metrics.ItemsEmitted.Add(float64(len(items)))
	o.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	return items, nil
}

// buildOne runs the pipeline for one beach. It returns nil and the omission
// reason when the beach is dropped.
func (o *Orchestrator) buildOne(ctx context.Context, b domain.Beach, prefs domain.UserPreferences) (*domain.RecommendationItem, string) {
	if !prefs.AllowsBeach(b) {
		return nil, omitParty
	}

	distance := prefs.MaxDistanceKm
	if prefs.Origin != nil {
		d := domain.HaversineKm(*prefs.Origin, domain.Coordinate{Lat: b.Latitude, Lon: b.Longitude})
		if prefs.MaxDistanceKm != nil && d > *prefs.MaxDistanceKm {
			return nil, omitDistance
		}
		distance = &d
	}

	ctx, cancel := context.WithTimeout(ctx, o.locationTimeout)
	defer cancel()

	obs, obsMeta, err := o.observations.FetchObservation(ctx, b.ID)
	if err != nil {
		return nil, o.sourceFailed(ctx, "observation", omitObservation, b, err)
	}

	alerts, alertMeta, err := o.alerts.FetchAlerts(ctx, b.ID)
	if err != nil {
		return nil, o.sourceFailed(ctx, "alerts", omitAlerts, b, err)
	}

	if err := errors.Join(obsMeta.Validate(), alertMeta.Validate()); err != nil {
		o.logger.Warn("source metadata rejected", "beach_id", b.ID, "error", err)
		return nil, omitMetadata
	}

	safety, scorerMeta := o.policy.Score(obs, domain.Severities(alerts), prefs)
	o.metrics.SafetyScore.Observe(float64(safety))

	hasEvents := false
	events, err := o.events.FetchEvents(ctx, b.Region)
	switch {
	case err == nil:
		hasEvents = domain.HasNearbyEvent(b, events)
	case o.eventPolicy == EventsOmit:
		return nil, o.sourceFailed(ctx, "events", omitEvents, b, err)
	default:
		o.metrics.SourceErrors.WithLabelValues("events").Inc()
		o.metrics.EventLookupsDegraded.Inc()
		o.logger.Warn("event lookup failed, assuming no events",
			"beach_id", b.ID, "region", b.Region, "error", err)
	}

	meta, err := domain.Reconcile(obsMeta, alertMeta, scorerMeta)
	if err != nil {
		return nil, omitMetadata
	}

	distanceKm := o.ranker.DefaultDistanceKm
	if distance != nil {
		distanceKm = *distance
	}

	return &domain.RecommendationItem{
		Beach:      b,
		Score:      o.ranker.Rank(safety, distance, hasEvents),
		Reason:     domain.Reason(safety, hasEvents),
		Meta:       meta,
		Safety:     safety,
		DistanceKm: distanceKm,
		HasEvents:  hasEvents,
	}, ""
}

// sourceFailed logs and counts a source failure and returns the omission reason.
func (o *Orchestrator) sourceFailed(ctx context.Context, source, reason string, b domain.Beach, err error) string {
	o.metrics.SourceErrors.WithLabelValues(source).Inc()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = omitTimeout
	}
	o.logger.Warn(source+" fetch failed, omitting beach", "beach_id", b.ID, "error", err)
	return reason
}
