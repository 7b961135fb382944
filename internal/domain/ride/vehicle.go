package ride

import (
	"fmt"

	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
)

// Vehicle is an immutable value object describing the car a ride is offered in.
type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"license_plate"`
	Color        string `json:"color,omitempty"`
}

// Validate checks the vehicle field constraints.
func (v Vehicle) Validate() error {
	if err := validateLength("vehicle make", v.Make, 2, 100); err != nil {
		return err
	}
	if err := validateLength("vehicle model", v.Model, 2, 100); err != nil {
		return err
	}
	if v.Year < 1900 || v.Year > 2030 {
		return domain.NewValidationError("vehicle year must be between 1900 and 2030")
	}
	if err := validateLength("vehicle license plate", v.LicensePlate, 2, 20); err != nil {
		return err
	}
	if len(v.Color) > 50 {
		return domain.NewValidationError("vehicle color must be at most 50 characters")
	}
	return nil
}

func validateLength(field, value string, min, max int) error {
	if len(value) < min || len(value) > max {
		return domain.NewValidationError(
			fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return nil
}
