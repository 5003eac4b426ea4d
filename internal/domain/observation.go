package domain

import "time"

// Observation is the latest environmental reading for a beach.
type Observation struct {
	BeachID        string    `json:"beachId"`
	ObservedAt     time.Time `json:"observedAt"`
	SeaSurfaceTemp float64   `json:"seaSurfaceTemp"` // °C
	WaveHeight     float64   `json:"waveHeight"`     // m
	WindSpeed      float64   `json:"windSpeed"`      // m/s
	TideLevel      float64   `json:"tideLevel"`      // m
}

// Severity is the ordered alert level: info < low < medium < high.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the ordinal position of the severity, or -1 when unrecognized.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is one of the four known levels.
func (s Severity) Valid() bool {
	return s.Rank() >= 0
}

// Alert is a time-bounded safety notice for a beach.
type Alert struct {
	BeachID  string     `json:"beachId"`
	Kind     string     `json:"alertType"` // open set: rip_current, jellyfish, heat, ...
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	StartsAt time.Time  `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"` // nil: active until withdrawn
}

// ActiveAt reports whether the alert window covers t. Alerts without an end never expire.
func (a Alert) ActiveAt(t time.Time) bool {
	if t.Before(a.StartsAt) {
		return false
	}
	return a.EndsAt == nil || t.Before(*a.EndsAt)
}

// Severities extracts the severity of each alert in order.
func Severities(alerts []Alert) []Severity {
	out := make([]Severity, len(alerts))
	for i, a := range alerts {
		out[i] = a.Severity
	}
	return out
}
