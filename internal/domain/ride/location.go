package ride

import (
	"fmt"
	"math"

	"github.com/rideshare-platform/service-rides/internal/domain/geo"
	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
)

// Location is an immutable value object pairing a street address with its
// coordinates. Invalid coordinates are rejected here so the geo math never
// sees NaN inputs.
type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Validate checks the address and coordinate ranges.
func (l Location) Validate(field string) error {
	if l.Address == "" {
		return domain.NewValidationError(fmt.Sprintf("%s address is required", field))
	}
	if len(l.Address) > 500 {
		return domain.NewValidationError(fmt.Sprintf("%s address must be at most 500 characters", field))
	}
	if math.IsNaN(l.Lat) || math.IsInf(l.Lat, 0) || l.Lat < -90 || l.Lat > 90 {
		return domain.NewValidationError(fmt.Sprintf("%s latitude must be between -90 and 90", field))
	}
	if math.IsNaN(l.Lng) || math.IsInf(l.Lng, 0) || l.Lng < -180 || l.Lng > 180 {
		return domain.NewValidationError(fmt.Sprintf("%s longitude must be between -180 and 180", field))
	}
	return nil
}

// Point returns the location's coordinates for distance computation.
func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Lat, Lng: l.Lng}
}
