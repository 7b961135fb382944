package ride

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CandidateFilter is the coarse, SQL-expressible part of a search query.
// Fine-grained geospatial filtering happens in the search layer.
type CandidateFilter struct {
	// MinSeats is the minimum number of available seats.
	MinSeats int

	// DepartureAfter excludes rides departing before this instant.
	DepartureAfter time.Time

	// DepartureDate, when set, restricts results to the UTC day containing it.
	DepartureDate *time.Time
}

// Repository defines the persistence contract for ride aggregates.
type Repository interface {
	// Save persists a new ride.
	Save(ctx context.Context, r *Ride) error

	// FindByID retrieves a ride by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Ride, error)

	// FindCandidates retrieves active rides matching the coarse filter.
	// The result set is unordered; ordering is a search-layer concern.
	FindCandidates(ctx context.Context, filter CandidateFilter) ([]*Ride, error)

	// FindByDriverID retrieves rides published by a driver with pagination.
	FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*Ride, int64, error)

	// FindActiveByDriverID retrieves a driver's non-terminal rides.
	FindActiveByDriverID(ctx context.Context, driverID uuid.UUID) ([]*Ride, error)

	// ListAll retrieves all rides with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Ride, int64, error)

	// CountByStatus returns ride counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Update persists changes to an existing ride with optimistic locking.
	Update(ctx context.Context, r *Ride) error
}
