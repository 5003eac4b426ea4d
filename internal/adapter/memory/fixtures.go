package memory

import (
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
)

// Source tags stamped on fixture metadata.
const (
	MarineSource = "mock-marine"
	SafetySource = "mock-safety"
)

// Reading is an observation together with the provenance its source reports.
type Reading struct {
	domain.Observation
	Source      string
	Reliability domain.Reliability
}

// Seed is a complete set of catalog and signal records.
type Seed struct {
	Beaches  []domain.Beach
	Readings []Reading
	Alerts   []domain.Alert
	Events   []domain.Event
}

func newBeach(id, name, region string, lat, lon float64, season, level string, amenities ...string) domain.Beach {
	return domain.Beach{
		ID:          id,
		Name:        name,
		Region:      region,
		Latitude:    lat,
		Longitude:   lon,
		Amenities:   amenities,
		OpenSeason:  season,
		SafetyLevel: level,
	}
}

// DefaultReading is served for catalogued beaches without a dedicated reading.
func DefaultReading(beachID string, now time.Time) Reading {
	return Reading{
		Observation: domain.Observation{
			BeachID:        beachID,
			ObservedAt:     now.Add(-time.Hour),
			SeaSurfaceTemp: 22.0,
			WaveHeight:     0.8,
			WindSpeed:      4.2,
			TideLevel:      0,
		},
		Source:      MarineSource,
		Reliability: domain.ReliabilityMedium,
	}
}

func newReading(beachID string, observedAt time.Time, temp, wave, wind float64, rel domain.Reliability) Reading {
	r := DefaultReading(beachID, observedAt)
	r.ObservedAt = observedAt
	r.SeaSurfaceTemp = temp
	r.WaveHeight = wave
	r.WindSpeed = wind
	r.Reliability = rel
	return r
}

func newAlert(beachID, kind string, severity domain.Severity, message string, startsAt time.Time, endsAt *time.Time) domain.Alert {
	return domain.Alert{
		BeachID:  beachID,
		Kind:     kind,
		Severity: severity,
		Message:  message,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	}
}

func newEvent(id int64, beach domain.Beach, title, description string, startsAt time.Time, duration time.Duration, price string, tags ...string) domain.Event {
	end := startsAt.Add(duration)
	return domain.Event{
		ID:          id,
		BeachID:     beach.ID,
		Region:      beach.Region,
		Title:       title,
		Description: description,
		StartsAt:    startsAt,
		EndsAt:      &end,
		Latitude:    beach.Latitude,
		Longitude:   beach.Longitude,
		Tags:        tags,
		Price:       price,
	}
}

// Fixtures returns the demo data set with every timestamp relative to now.
func Fixtures(now time.Time) Seed {
	haeundae := newBeach("haeundae", "Haeundae Beach", "Busan", 35.1587, 129.1604, "06-01~09-10", "medium",
		"shower", "first_aid", "parking", "surf_rental")
	gwangalli := newBeach("gwangalli", "Gwangalli Beach", "Busan", 35.1528, 129.1186, "06-15~09-01", "low",
		"shower", "changing_room")
	jungmun := newBeach("jungmun", "Jungmun Saekdal Beach", "Jeju", 33.2479, 126.4085, "year-round", "low",
		"parking", "photo_zone")

	ripEnd := now.Add(2 * time.Hour)
	heatEnd := now.Add(6 * time.Hour)

	yoga := newEvent(2, gwangalli, "Gwangalli Beach Yoga", "Sunrise yoga class on the sand",
		now.Add(54*time.Hour), time.Hour, "15,000 KRW", "activity", "wellness")
	yoga.Latitude, yoga.Longitude = 35.153, 129.118

	return Seed{
		Beaches: []domain.Beach{haeundae, gwangalli, jungmun},
		Readings: []Reading{
			newReading("haeundae", now.Add(-10*time.Minute), 23.8, 0.6, 3.2, domain.ReliabilityHigh),
			newReading("gwangalli", now.Add(-7*time.Minute), 24.1, 0.4, 2.5, domain.ReliabilityHigh),
		},
		Alerts: []domain.Alert{
			newAlert("haeundae", "rip_current", domain.SeverityMedium,
				"Rip currents reported, follow lifeguard announcements.", now.Add(-time.Hour), &ripEnd),
			newAlert("haeundae", "jellyfish", domain.SeverityLow,
				"Small jellyfish sighted, protective gear recommended.", now.Add(-5*time.Hour), nil),
			newAlert("gwangalli", "heat", domain.SeverityInfo,
				"Heat advisory in effect, rest in the shade.", now.Add(-3*time.Hour), &heatEnd),
		},
		Events: []domain.Event{
			newEvent(1, haeundae, "Haeundae Night Busking", "Evening street performances with local musicians",
				now.Add(34*time.Hour), 2*time.Hour, "free", "performance", "night"),
			yoga,
		},
	}
}
