// Package memory serves the catalog and all three signal sources from
// in-process fixtures. It backs local development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Store is an in-memory BeachCatalog, ObservationSource, AlertSource and EventSource.
type Store struct {
	clock clockwork.Clock

	mu       sync.RWMutex
	beaches  []domain.Beach
	readings map[string]Reading
	alerts   map[string][]domain.Alert
	events   []domain.Event
}

// NewStore returns a store loaded with seed. A nil clock uses the real clock.
func NewStore(clock clockwork.Clock, seed Seed) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Store{
		clock:    clock,
		readings: make(map[string]Reading),
		alerts:   make(map[string][]domain.Alert),
	}
	s.Load(seed)
	return s
}

// NewSeededStore returns a store holding Fixtures relative to the clock's now.
func NewSeededStore(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return NewStore(clock, Fixtures(clock.Now()))
}

// Load adds every record in seed. Readings replace earlier readings for the same beach.
func (s *Store) Load(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.beaches = append(s.beaches, seed.Beaches...)
	for _, r := range seed.Readings {
		s.readings[r.BeachID] = r
	}
	for _, a := range seed.Alerts {
		s.alerts[a.BeachID] = append(s.alerts[a.BeachID], a)
	}
	s.events = append(s.events, seed.Events...)
}

// ListBeaches returns the catalog in insertion order.
func (s *Store) ListBeaches(_ context.Context) ([]domain.Beach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Beach, len(s.beaches))
	copy(out, s.beaches)
	return out, nil
}

func (s *Store) GetBeach(_ context.Context, id string) (domain.Beach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beach(id)
	if !ok {
		return domain.Beach{}, fmt.Errorf("beach %q: %w", id, domain.ErrBeachNotFound)
	}
	return b, nil
}

func (s *Store) beach(id string) (domain.Beach, bool) {
	for _, b := range s.beaches {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Beach{}, false
}

// FetchObservation returns the beach's reading, or a default reading for a
// catalogued beach that has none. Metadata is stamped at fetch time.
func (s *Store) FetchObservation(ctx context.Context, beachID string) (domain.Observation, domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return domain.Observation{}, domain.Metadata{}, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	r, ok := s.readings[beachID]
	if !ok {
		if _, known := s.beach(beachID); !known {
			return domain.Observation{}, domain.Metadata{}, fmt.Errorf("%w: no observation for beach %q", domain.ErrSourceUnavailable, beachID)
		}
		r = DefaultReading(beachID, now)
	}
	return r.Observation, domain.Metadata{Source: r.Source, UpdatedAt: now, Reliability: r.Reliability}, nil
}

// FetchAlerts returns the alerts active now. Unknown beaches yield an empty list.
func (s *Store) FetchAlerts(ctx context.Context, beachID string) ([]domain.Alert, domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Metadata{}, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	active := make([]domain.Alert, 0, len(s.alerts[beachID]))
	for _, a := range s.alerts[beachID] {
		if a.ActiveAt(now) {
			active = append(active, a)
		}
	}
	return active, domain.Metadata{Source: SafetySource, UpdatedAt: now, Reliability: domain.ReliabilityMedium}, nil
}

// FetchEvents returns events whose region matches case-insensitively. An
// empty region returns every event.
func (s *Store) FetchEvents(ctx context.Context, region string) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Event, 0, len(s.events))
	for _, e := range s.events {
		if region == "" || strings.EqualFold(e.Region, region) {
			out = append(out, e)
		}
	}
	return out, nil
}

// CheckReadiness always succeeds.
func (s *Store) CheckReadiness(context.Context) error { return nil }
