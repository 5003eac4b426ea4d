package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Party types accepted in UserPreferences.PartyTypes.
const (
	PartyFamily     = "family"
	PartySurf       = "surf"
	PartyAccessible = "accessible"
	PartyPets       = "pets"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// UserPreferences carries optional per-request thresholds. A nil field means
// the system default applies for that dimension.
type UserPreferences struct {
	MaxWaveHeight *float64    `json:"waveMax,omitempty" validate:"omitempty,gte=0"`
	MinTemp       *float64    `json:"tempMin,omitempty" validate:"omitempty,gte=-10,lte=45"`
	MaxDistanceKm *float64    `json:"distanceKm,omitempty" validate:"omitempty,gte=0"`
	PartyTypes    []string    `json:"partyTypes,omitempty" validate:"omitempty,dive,oneof=family surf accessible pets"`
	Origin        *Coordinate `json:"origin,omitempty" validate:"omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func preferenceValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the thresholds and wraps every violation in ErrInvalidPreferences.
func (p UserPreferences) Validate() error {
	err := preferenceValidator().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidPreferences, strings.Join(msgs, "; "))
}

// partyAmenity maps a party type to the amenity a beach must offer. Family
// parties accept any beach with at least one amenity.
var partyAmenity = map[string]string{
	PartySurf:       "surf_rental",
	PartyAccessible: "accessible_path",
	PartyPets:       "pet_zone",
}

// AllowsBeach reports whether the beach satisfies every requested party type.
func (p UserPreferences) AllowsBeach(b Beach) bool {
	for _, party := range p.PartyTypes {
		if party == PartyFamily {
			if len(b.Amenities) == 0 {
				return false
			}
			continue
		}
		if !hasAmenity(b, partyAmenity[party]) {
			return false
		}
	}
	return true
}

func hasAmenity(b Beach, amenity string) bool {
	for _, a := range b.Amenities {
		if a == amenity {
			return true
		}
	}
	return false
}
