package domain

import "context"

// ObservationSource returns the latest reading for a beach.
type ObservationSource interface {
	// FetchObservation fails with ErrSourceUnavailable when no reading can be retrieved.
	FetchObservation(ctx context.Context, beachID string) (Observation, Metadata, error)
}

// AlertSource returns the currently active alerts for a beach.
type AlertSource interface {
	// FetchAlerts never reports "not found": an unknown beach yields an empty list.
	FetchAlerts(ctx context.Context, beachID string) ([]Alert, Metadata, error)
}

// EventSource returns scheduled events for a region.
type EventSource interface {
	FetchEvents(ctx context.Context, region string) ([]Event, error)
}

// BeachCatalog lists the beaches known to the service.
type BeachCatalog interface {
	ListBeaches(ctx context.Context) ([]Beach, error)
	// GetBeach returns ErrBeachNotFound for unknown ids.
	GetBeach(ctx context.Context, id string) (Beach, error)
}
