package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicRideEvents = "ride.events"
	TopicUserEvents = "user.events"
)

// Event types published on ride.events.
const (
	RideCreated   = "ride.created"
	RideBooked    = "ride.booked"
	RideReleased  = "ride.released"
	RideCompleted = "ride.completed"
	RideCancelled = "ride.cancelled"
)

// Event types consumed from user.events.
const (
	UserDeactivated = "user.deactivated"
)

// RideCreatedEvent announces a newly published ride.
type RideCreatedEvent struct {
	RideID         uuid.UUID `json:"ride_id"`
	DriverID       uuid.UUID `json:"driver_id"`
	OriginLat      float64   `json:"origin_lat"`
	OriginLng      float64   `json:"origin_lng"`
	DestinationLat float64   `json:"destination_lat"`
	DestinationLng float64   `json:"destination_lng"`
	DepartureTime  time.Time `json:"departure_time"`
	AvailableSeats int       `json:"available_seats"`
	PricePerSeat   float64   `json:"price_per_seat"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RideSeatsEvent reports a seat booking or release.
type RideSeatsEvent struct {
	RideID         uuid.UUID `json:"ride_id"`
	DriverID       uuid.UUID `json:"driver_id"`
	Seats          int       `json:"seats"`
	RemainingSeats int       `json:"remaining_seats"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RideStatusEvent reports a completion or cancellation.
type RideStatusEvent struct {
	RideID     uuid.UUID `json:"ride_id"`
	DriverID   uuid.UUID `json:"driver_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserDeactivatedEvent is emitted by the identity service when an account is
// disabled; the rides service cancels the driver's open rides in response.
type UserDeactivatedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
