package domain

import (
	"math"
	"strings"
)

const (
	safetyWeight     = 0.5
	distanceWeight   = 0.2
	distanceDecayKm  = 80.0
	eventBoost       = 0.1
	popularityWeight = 0.3
)

// Ranker blends safety, distance and event signals into one value in [0,1].
type Ranker struct {
	// Popularity is a per-deployment baseline in [0,1]. It is a constant
	// today; a per-beach signal can replace it without touching the formula.
	Popularity float64
	// DefaultDistanceKm is used when the caller supplies no distance.
	DefaultDistanceKm float64
}

// DefaultRanker returns a ranker with popularity 0.5 and a 20 km default distance.
func DefaultRanker() Ranker {
	return Ranker{Popularity: 0.5, DefaultDistanceKm: 20}
}

// Rank scores a beach. A nil distance falls back to DefaultDistanceKm.
func (r Ranker) Rank(safety SafetyScore, distanceKm *float64, hasEvents bool) float64 {
	d := r.DefaultDistanceKm
	if distanceKm != nil {
		d = *distanceKm
	}
	return RankScore(safety, d, hasEvents, r.Popularity)
}

// RankScore computes
//
//	min(1, 0.5·safety/100 + 0.2·exp(−d/80) + 0.1·events + 0.3·popularity)
//
// rounded to three decimals.
func RankScore(safety SafetyScore, distanceKm float64, hasEvents bool, popularity float64) float64 {
	score := safetyWeight*(float64(safety)/100) +
		distanceWeight*math.Exp(-distanceKm/distanceDecayKm) +
		popularityWeight*popularity
	if hasEvents {
		score += eventBoost
	}
	return round3(math.Min(1.0, score))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// HasNearbyEvent reports whether any event title mentions the beach. The match
// uses the first whitespace-separated token of the beach name as a
// case-sensitive substring, so "Haeundae Beach" matches "Haeundae Night Busking".
func HasNearbyEvent(b Beach, events []Event) bool {
	fields := strings.Fields(b.Name)
	if len(fields) == 0 {
		return false
	}
	token := fields[0]
	for _, e := range events {
		if strings.Contains(e.Title, token) {
			return true
		}
	}
	return false
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(a, b Coordinate) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
