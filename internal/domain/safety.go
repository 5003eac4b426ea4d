package domain

import "math"

// ScorerSource tags metadata produced by the safety scorer.
const ScorerSource = "safety-scorer"

const (
	baseSafetyScore     = 100
	wavePenaltyPerMeter = 20
	userTempPenalty     = 20
	defaultTempPenalty  = 15
	highAlertPenalty    = 40
	anyAlertPenalty     = 15
	windThreshold       = 6.0 // m/s
	windPenaltyPerMS    = 5
	windPenaltyCap      = 25
)

// SafetyScore is an integer in [0,100]; higher is safer.
type SafetyScore int

// SafetyPolicy holds the system defaults applied when a user leaves a threshold unset.
type SafetyPolicy struct {
	DefaultMaxWaveHeight float64     // m
	DefaultMinTemp       float64     // °C
	Reliability          Reliability // tier stamped on every score
}

// DefaultSafetyPolicy returns the stock thresholds: 1.2 m waves, 20 °C water, medium reliability.
func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		DefaultMaxWaveHeight: 1.2,
		DefaultMinTemp:       20,
		Reliability:          ReliabilityMedium,
	}
}

// Score converts one observation and the severities of its active alerts into
// a bounded safety score. The returned metadata describes the scoring event
// itself and does not inherit anything from the observation's metadata.
func (p SafetyPolicy) Score(obs Observation, severities []Severity, prefs UserPreferences) (SafetyScore, Metadata) {
	penalties := p.wavePenalty(obs.WaveHeight, prefs) +
		p.temperaturePenalty(obs.SeaSurfaceTemp, prefs) +
		alertPenalty(severities) +
		windPenalty(obs.WindSpeed)

	score := math.Max(0, math.Floor(baseSafetyScore-penalties))

	return SafetyScore(score), Metadata{
		Source:      ScorerSource,
		UpdatedAt:   clock.Now(),
		Reliability: p.Reliability,
	}
}

func (p SafetyPolicy) wavePenalty(waveHeight float64, prefs UserPreferences) float64 {
	threshold := p.DefaultMaxWaveHeight
	if prefs.MaxWaveHeight != nil {
		threshold = *prefs.MaxWaveHeight
	}
	return math.Max(0, (waveHeight-threshold)*wavePenaltyPerMeter)
}

// temperaturePenalty applies the user minimum when present; otherwise the default rule.
func (p SafetyPolicy) temperaturePenalty(temp float64, prefs UserPreferences) float64 {
	if prefs.MinTemp != nil {
		if temp < *prefs.MinTemp {
			return userTempPenalty
		}
		return 0
	}
	if temp < p.DefaultMinTemp {
		return defaultTempPenalty
	}
	return 0
}

// alertPenalty charges only the worst case: a high alert, else any alert.
func alertPenalty(severities []Severity) float64 {
	if len(severities) == 0 {
		return 0
	}
	for _, s := range severities {
		if s == SeverityHigh {
			return highAlertPenalty
		}
	}
	return anyAlertPenalty
}

func windPenalty(windSpeed float64) float64 {
	if windSpeed <= windThreshold {
		return 0
	}
	return math.Min((windSpeed-windThreshold)*windPenaltyPerMS, windPenaltyCap)
}
