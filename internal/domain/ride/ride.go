package ride

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
)

const (
	// MinSeats and MaxSeats bound the number of offered seats.
	MinSeats = 1
	MaxSeats = 7

	// MaxPricePerSeat is the upper bound for the per-seat price.
	MaxPricePerSeat = 999.99

	// minDepartureLead is how far in the future a new ride must depart.
	minDepartureLead = time.Hour
)

// Ride is the aggregate root for a published carpool offer. The driver
// reference is an opaque ID owned by the identity service; it is never
// enforced as a foreign key across the service boundary.
type Ride struct {
	id                uuid.UUID
	driverID          uuid.UUID
	origin            Location
	destination       Location
	departureTime     time.Time
	availableSeats    int
	pricePerSeat      float64
	vehicle           Vehicle
	preferences       map[string]interface{}
	notes             string
	isRecurring       bool
	recurringSchedule map[string]interface{}
	status            RideStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRide creates a new Ride with status=active after validating every
// data-model invariant. Naive departure timestamps are treated as UTC.
func NewRide(
	driverID uuid.UUID,
	origin, destination Location,
	departureTime time.Time,
	availableSeats int,
	pricePerSeat float64,
	vehicle Vehicle,
	preferences map[string]interface{},
	notes string,
	isRecurring bool,
	recurringSchedule map[string]interface{},
) (*Ride, error) {
	if driverID == uuid.Nil {
		return nil, domain.NewValidationError("driver ID is required")
	}
	if err := origin.Validate("origin"); err != nil {
		return nil, err
	}
	if err := destination.Validate("destination"); err != nil {
		return nil, err
	}
	departureTime = normalizeUTC(departureTime)
	if departureTime.Before(time.Now().UTC().Add(minDepartureLead)) {
		return nil, domain.NewValidationError("departure time must be at least 1 hour in the future")
	}
	if err := validateSeats(availableSeats); err != nil {
		return nil, err
	}
	if err := validatePrice(pricePerSeat); err != nil {
		return nil, err
	}
	if err := vehicle.Validate(); err != nil {
		return nil, err
	}
	if len(notes) > 1000 {
		return nil, domain.NewValidationError("notes must be at most 1000 characters")
	}

	now := time.Now().UTC()
	return &Ride{
		id:                uuid.New(),
		driverID:          driverID,
		origin:            origin,
		destination:       destination,
		departureTime:     departureTime,
		availableSeats:    availableSeats,
		pricePerSeat:      pricePerSeat,
		vehicle:           vehicle,
		preferences:       preferences,
		notes:             notes,
		isRecurring:       isRecurring,
		recurringSchedule: recurringSchedule,
		status:            StatusActive,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// Reconstruct rebuilds a Ride from persistence data (no validation).
func Reconstruct(
	id, driverID uuid.UUID,
	origin, destination Location,
	departureTime time.Time,
	availableSeats int,
	pricePerSeat float64,
	vehicle Vehicle,
	preferences map[string]interface{},
	notes string,
	isRecurring bool,
	recurringSchedule map[string]interface{},
	status RideStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Ride {
	return &Ride{
		id:                id,
		driverID:          driverID,
		origin:            origin,
		destination:       destination,
		departureTime:     departureTime,
		availableSeats:    availableSeats,
		pricePerSeat:      pricePerSeat,
		vehicle:           vehicle,
		preferences:       preferences,
		notes:             notes,
		isRecurring:       isRecurring,
		recurringSchedule: recurringSchedule,
		status:            status,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

func (r *Ride) ID() uuid.UUID                             { return r.id }
func (r *Ride) DriverID() uuid.UUID                       { return r.driverID }
func (r *Ride) Origin() Location                          { return r.origin }
func (r *Ride) Destination() Location                     { return r.destination }
func (r *Ride) DepartureTime() time.Time                  { return r.departureTime }
func (r *Ride) AvailableSeats() int                       { return r.availableSeats }
func (r *Ride) PricePerSeat() float64                     { return r.pricePerSeat }
func (r *Ride) Vehicle() Vehicle                          { return r.vehicle }
func (r *Ride) Preferences() map[string]interface{}       { return r.preferences }
func (r *Ride) Notes() string                             { return r.notes }
func (r *Ride) IsRecurring() bool                         { return r.isRecurring }
func (r *Ride) RecurringSchedule() map[string]interface{} { return r.recurringSchedule }
func (r *Ride) Status() RideStatus                        { return r.status }
func (r *Ride) Version() int64                            { return r.version }
func (r *Ride) CreatedAt() time.Time                      { return r.createdAt }
func (r *Ride) UpdatedAt() time.Time                      { return r.updatedAt }

// IsOwnedBy checks if the ride belongs to the given driver.
func (r *Ride) IsOwnedBy(driverID uuid.UUID) bool {
	return r.driverID == driverID
}

// --- Behavior ---

// BookSeats consumes the given number of seats. When the last seat is taken
// the ride transitions from active to full.
func (r *Ride) BookSeats(count int) error {
	if count < 1 {
		return domain.NewValidationError("seat count must be at least 1")
	}
	if r.status != StatusActive {
		return domain.NewConflictError(fmt.Sprintf("ride is %s, seats cannot be booked", r.status))
	}
	if count > r.availableSeats {
		return domain.NewConflictError(
			fmt.Sprintf("only %d seat(s) available", r.availableSeats))
	}

	r.availableSeats -= count
	if r.availableSeats == 0 {
		r.status = StatusFull
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// ReleaseSeats returns previously booked seats to the pool. Freeing a seat on
// a full ride transitions it back to active.
func (r *Ride) ReleaseSeats(count int) error {
	if count < 1 {
		return domain.NewValidationError("seat count must be at least 1")
	}
	if r.status != StatusActive && r.status != StatusFull {
		return domain.NewConflictError(fmt.Sprintf("ride is %s, seats cannot be released", r.status))
	}
	if r.availableSeats+count > MaxSeats {
		return domain.NewValidationError(
			fmt.Sprintf("available seats cannot exceed %d", MaxSeats))
	}

	r.availableSeats += count
	if r.status == StatusFull {
		r.status = StatusActive
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// Complete marks the ride as completed.
func (r *Ride) Complete() error {
	if !r.status.CanTransitionTo(StatusCompleted) {
		return domain.NewConflictError(
			fmt.Sprintf("cannot complete a %s ride", r.status))
	}
	r.status = StatusCompleted
	r.updatedAt = time.Now().UTC()
	return nil
}

// Cancel marks the ride as cancelled. Cancellation is a status transition,
// never a physical delete.
func (r *Ride) Cancel() error {
	if !r.status.CanTransitionTo(StatusCancelled) {
		return domain.NewConflictError(
			fmt.Sprintf("cannot cancel a %s ride", r.status))
	}
	r.status = StatusCancelled
	r.updatedAt = time.Now().UTC()
	return nil
}

// Update applies a partial update to the ride's mutable fields, revalidating
// each supplied value. Terminal rides cannot be updated.
func (r *Ride) Update(upd Update) error {
	if r.status.IsTerminal() {
		return domain.NewConflictError(fmt.Sprintf("cannot update a %s ride", r.status))
	}

	if upd.Origin != nil {
		if err := upd.Origin.Validate("origin"); err != nil {
			return err
		}
	}
	if upd.Destination != nil {
		if err := upd.Destination.Validate("destination"); err != nil {
			return err
		}
	}
	var departure time.Time
	if upd.DepartureTime != nil {
		departure = normalizeUTC(*upd.DepartureTime)
		if departure.Before(time.Now().UTC().Add(minDepartureLead)) {
			return domain.NewValidationError("departure time must be at least 1 hour in the future")
		}
	}
	if upd.AvailableSeats != nil {
		if err := validateSeats(*upd.AvailableSeats); err != nil {
			return err
		}
	}
	if upd.PricePerSeat != nil {
		if err := validatePrice(*upd.PricePerSeat); err != nil {
			return err
		}
	}
	if upd.Vehicle != nil {
		if err := upd.Vehicle.Validate(); err != nil {
			return err
		}
	}
	if upd.Notes != nil && len(*upd.Notes) > 1000 {
		return domain.NewValidationError("notes must be at most 1000 characters")
	}

	if upd.Origin != nil {
		r.origin = *upd.Origin
	}
	if upd.Destination != nil {
		r.destination = *upd.Destination
	}
	if upd.DepartureTime != nil {
		r.departureTime = departure
	}
	if upd.AvailableSeats != nil {
		r.availableSeats = *upd.AvailableSeats
		// Seat edits keep the status and seat count consistent.
		if r.status == StatusFull && r.availableSeats > 0 {
			r.status = StatusActive
		}
	}
	if upd.PricePerSeat != nil {
		r.pricePerSeat = *upd.PricePerSeat
	}
	if upd.Vehicle != nil {
		r.vehicle = *upd.Vehicle
	}
	if upd.Preferences != nil {
		r.preferences = upd.Preferences
	}
	if upd.Notes != nil {
		r.notes = *upd.Notes
	}

	r.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Ride) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}

// Update holds a partial update to a ride; nil fields are left unchanged.
type Update struct {
	Origin         *Location
	Destination    *Location
	DepartureTime  *time.Time
	AvailableSeats *int
	PricePerSeat   *float64
	Vehicle        *Vehicle
	Preferences    map[string]interface{}
	Notes          *string
}

// --- Validation helpers ---

func validateSeats(seats int) error {
	if seats < MinSeats || seats > MaxSeats {
		return domain.NewValidationError(
			fmt.Sprintf("available seats must be between %d and %d", MinSeats, MaxSeats))
	}
	return nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || price < 0 || price > MaxPricePerSeat {
		return domain.NewValidationError(
			fmt.Sprintf("price per seat must be between 0 and %.2f", MaxPricePerSeat))
	}
	if math.Abs(price*100-math.Round(price*100)) > 1e-9 {
		return domain.NewValidationError("price per seat must have at most 2 decimal places")
	}
	return nil
}

// normalizeUTC converts t to UTC, treating naive timestamps as UTC.
func normalizeUTC(t time.Time) time.Time {
	return t.UTC()
}
