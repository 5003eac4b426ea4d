package domain

import "errors"

var (
	// ErrSourceUnavailable reports that a collaborator could not answer a lookup.
	// Adapters wrap their transport or storage errors with it.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidPreferences reports malformed user thresholds.
	ErrInvalidPreferences = errors.New("invalid preferences")

	// ErrInvalidMetadata reports a metadata record whose reliability tier is out of range.
	ErrInvalidMetadata = errors.New("invalid metadata")

	// ErrNoMetadata is returned when reconciling an empty set of records.
	ErrNoMetadata = errors.New("no metadata records to reconcile")

	// ErrBeachNotFound is returned by catalogs for unknown beach ids.
	ErrBeachNotFound = errors.New("beach not found")
)
