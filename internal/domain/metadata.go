package domain

import (
	"fmt"
	"time"
)

// Reliability is an ordinal confidence tier attached to any data record.
// Lower values are less trustworthy.
type Reliability uint8

const (
	ReliabilityLow    Reliability = 0
	ReliabilityMedium Reliability = 1
	ReliabilityHigh   Reliability = 2
)

// Valid reports whether r is one of the three defined tiers.
func (r Reliability) Valid() bool {
	return r <= ReliabilityHigh
}

// ParseReliability converts an integer tier, rejecting values outside 0–2.
func ParseReliability(v int) (Reliability, error) {
	if v < 0 || v > int(ReliabilityHigh) {
		return 0, fmt.Errorf("%w: reliability %d out of range 0-2", ErrInvalidMetadata, v)
	}
	return Reliability(v), nil
}

// Metadata describes where a record came from and how fresh and trustworthy it is.
type Metadata struct {
	Source      string      `json:"source"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Reliability Reliability `json:"reliability"`
}

// Validate checks the reliability invariant.
func (m Metadata) Validate() error {
	if !m.Reliability.Valid() {
		return fmt.Errorf("%w: source %q reliability %d out of range 0-2", ErrInvalidMetadata, m.Source, m.Reliability)
	}
	return nil
}
