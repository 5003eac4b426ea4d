package domain

import "time"

// Beach is a catalogued location that can be recommended.
type Beach struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Region      string   `json:"region"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Amenities   []string `json:"amenities"`
	OpenSeason  string   `json:"openSeason,omitempty"`
	SafetyLevel string   `json:"safetyLevel,omitempty"`
}

// Event is a scheduled happening near a beach.
type Event struct {
	ID          int64      `json:"id"`
	BeachID     string     `json:"beachId,omitempty"`
	Region      string     `json:"region"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Tags        []string   `json:"tags"`
	Price       string     `json:"price,omitempty"`
}
