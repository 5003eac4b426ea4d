package domain

import "fmt"

// RecommendationItem is one ranked beach in a recommendation response.
type RecommendationItem struct {
	Beach      Beach       `json:"beach"`
	Score      float64     `json:"score"`
	Reason     string      `json:"reason"`
	Meta       Metadata    `json:"meta"`
	Safety     SafetyScore `json:"safetyScore"`
	DistanceKm float64     `json:"distanceKm"`
	HasEvents  bool        `json:"hasEvents"`
}

// Reason renders the user-facing explanation, e.g. "safety score 80, events present".
func Reason(safety SafetyScore, hasEvents bool) string {
	events := "absent"
	if hasEvents {
		events = "present"
	}
	return fmt.Sprintf("safety score %d, events %s", safety, events)
}
