package application

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rideshare-platform/service-rides/internal/domain/geo"
	rideDomain "github.com/rideshare-platform/service-rides/internal/domain/ride"
	"github.com/rideshare-platform/service-rides/internal/identity"
	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
	"github.com/rideshare-platform/service-rides/internal/pkg/events"
	"github.com/rideshare-platform/service-rides/internal/pkg/kafka"
)

const (
	// DefaultProximityKm is the search radius used when the caller omits one.
	DefaultProximityKm = 5.0

	// MinProximityKm and MaxProximityKm bound the caller-supplied radius.
	MinProximityKm = 0.1
	MaxProximityKm = 50.0
)

// DriverVerifier resolves a driver's profile from the identity service.
type DriverVerifier interface {
	ResolveDriver(ctx context.Context, driverID uuid.UUID) (*identity.DriverProfile, error)
}

// EventPublisher publishes CloudEvents to the bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateRideRequest holds the data needed to publish a new ride.
type CreateRideRequest struct {
	Origin            rideDomain.Location    `json:"origin" binding:"required"`
	Destination       rideDomain.Location    `json:"destination" binding:"required"`
	DepartureTime     time.Time              `json:"departure_time" binding:"required"`
	AvailableSeats    int                    `json:"available_seats" binding:"required"`
	PricePerSeat      float64                `json:"price_per_seat"`
	Vehicle           rideDomain.Vehicle     `json:"vehicle" binding:"required"`
	Preferences       map[string]interface{} `json:"preferences"`
	Notes             string                 `json:"notes"`
	IsRecurring       bool                   `json:"is_recurring"`
	RecurringSchedule map[string]interface{} `json:"recurring_schedule"`
}

// UpdateRideRequest holds a partial ride update; nil fields are unchanged.
type UpdateRideRequest struct {
	Origin         *rideDomain.Location   `json:"origin"`
	Destination    *rideDomain.Location   `json:"destination"`
	DepartureTime  *time.Time             `json:"departure_time"`
	AvailableSeats *int                   `json:"available_seats"`
	PricePerSeat   *float64               `json:"price_per_seat"`
	Vehicle        *rideDomain.Vehicle    `json:"vehicle"`
	Preferences    map[string]interface{} `json:"preferences"`
	Notes          *string                `json:"notes"`
}

// SearchQuery holds ride search parameters. Origin coordinates are optional;
// when present, candidates outside ProximityKm of the origin are dropped.
type SearchQuery struct {
	OriginLat     *float64
	OriginLng     *float64
	MinSeats      int
	ProximityKm   float64
	DepartureDate *time.Time
}

// RideDTO is the response representation of a ride.
type RideDTO struct {
	ID                uuid.UUID              `json:"id"`
	DriverID          uuid.UUID              `json:"driver_id"`
	Origin            rideDomain.Location    `json:"origin"`
	Destination       rideDomain.Location    `json:"destination"`
	DepartureTime     time.Time              `json:"departure_time"`
	AvailableSeats    int                    `json:"available_seats"`
	PricePerSeat      float64                `json:"price_per_seat"`
	Vehicle           rideDomain.Vehicle     `json:"vehicle"`
	Preferences       map[string]interface{} `json:"preferences,omitempty"`
	Status            string                 `json:"status"`
	IsRecurring       bool                   `json:"is_recurring"`
	RecurringSchedule map[string]interface{} `json:"recurring_schedule,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// RideService orchestrates ride discovery and lifecycle use cases.
type RideService struct {
	repo     rideDomain.Repository
	verifier DriverVerifier
	producer EventPublisher
	logger   *zap.Logger
}

// NewRideService creates a new RideService.
func NewRideService(
	repo rideDomain.Repository,
	verifier DriverVerifier,
	producer EventPublisher,
	logger *zap.Logger,
) *RideService {
	return &RideService{
		repo:     repo,
		verifier: verifier,
		producer: producer,
		logger:   logger,
	}
}

// PublishRide verifies the driver with the identity service, validates the
// draft, and persists the ride with status=active. Any caller-supplied status
// is ignored.
func (s *RideService) PublishRide(ctx context.Context, driverID uuid.UUID, req CreateRideRequest) (*RideDTO, error) {
	profile, err := s.verifier.ResolveDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, domain.NewValidationError("driver account is not active")
	}

	r, err := rideDomain.NewRide(
		driverID,
		req.Origin,
		req.Destination,
		req.DepartureTime,
		req.AvailableSeats,
		req.PricePerSeat,
		req.Vehicle,
		req.Preferences,
		req.Notes,
		req.IsRecurring,
		req.RecurringSchedule,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}

	s.publishRideCreated(ctx, r)

	result := toRideDTO(r)
	return &result, nil
}

// SearchRides answers a discovery query: coarse SQL-filterable candidates
// first, then the in-process radius filter when an origin is given.
//
// Ordering is deterministic: ascending distance from the query origin when one
// is supplied, otherwise ascending departure time; ties break on ride ID.
func (s *RideService) SearchRides(ctx context.Context, query SearchQuery) ([]RideDTO, error) {
	if query.MinSeats < 1 {
		query.MinSeats = 1
	}
	proximity := query.ProximityKm
	if proximity == 0 {
		proximity = DefaultProximityKm
	}
	if proximity < MinProximityKm || proximity > MaxProximityKm {
		return nil, domain.NewValidationError(
			fmt.Sprintf("proximity must be between %.1f and %.1f km", MinProximityKm, MaxProximityKm))
	}
	if query.OriginLat != nil && query.OriginLng != nil {
		if err := validateOrigin(*query.OriginLat, *query.OriginLng); err != nil {
			return nil, err
		}
	}

	filter := rideDomain.CandidateFilter{
		MinSeats:       query.MinSeats,
		DepartureAfter: time.Now().UTC(),
		DepartureDate:  query.DepartureDate,
	}
	candidates, err := s.repo.FindCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query ride candidates: %w", err)
	}

	if query.OriginLat != nil && query.OriginLng != nil {
		origin := geo.Point{Lat: *query.OriginLat, Lng: *query.OriginLng}

		filtered := candidates[:0]
		for _, r := range candidates {
			if geo.WithinRadius(r.Origin().Point(), origin, proximity) {
				filtered = append(filtered, r)
			}
		}
		candidates = filtered

		sort.Slice(candidates, func(i, j int) bool {
			di := geo.DistanceKm(candidates[i].Origin().Point(), origin)
			dj := geo.DistanceKm(candidates[j].Origin().Point(), origin)
			if di != dj {
				return di < dj
			}
			return candidates[i].ID().String() < candidates[j].ID().String()
		})
	} else {
		sort.Slice(candidates, func(i, j int) bool {
			ti, tj := candidates[i].DepartureTime(), candidates[j].DepartureTime()
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return candidates[i].ID().String() < candidates[j].ID().String()
		})
	}

	dtos := make([]RideDTO, len(candidates))
	for i, r := range candidates {
		dtos[i] = toRideDTO(r)
	}
	return dtos, nil
}

// GetRide retrieves a single ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID uuid.UUID) (*RideDTO, error) {
	r, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	result := toRideDTO(r)
	return &result, nil
}

// BookSeats consumes seats on a ride. Concurrent bookings on the same ride are
// serialized by the repository's optimistic version check; a lost race
// surfaces as a conflict the caller may retry.
func (s *RideService) BookSeats(ctx context.Context, rideID uuid.UUID, seats int) (*RideDTO, error) {
	r, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if err := r.BookSeats(seats); err != nil {
		return nil, err
	}

	r.IncrementVersion()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	evt := events.RideSeatsEvent{
		RideID:         r.ID(),
		DriverID:       r.DriverID(),
		Seats:          seats,
		RemainingSeats: r.AvailableSeats(),
		Status:         r.Status().String(),
		OccurredAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicRideEvents, events.RideBooked, evt)

	result := toRideDTO(r)
	return &result, nil
}

// ReleaseSeats frees previously booked seats; a full ride becomes active again.
func (s *RideService) ReleaseSeats(ctx context.Context, rideID uuid.UUID, seats int) (*RideDTO, error) {
	r, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if err := r.ReleaseSeats(seats); err != nil {
		return nil, err
	}

	r.IncrementVersion()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	evt := events.RideSeatsEvent{
		RideID:         r.ID(),
		DriverID:       r.DriverID(),
		Seats:          seats,
		RemainingSeats: r.AvailableSeats(),
		Status:         r.Status().String(),
		OccurredAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicRideEvents, events.RideReleased, evt)

	result := toRideDTO(r)
	return &result, nil
}

// CompleteRide marks a ride as completed. Only the owning driver may complete.
func (s *RideService) CompleteRide(ctx context.Context, rideID, driverID uuid.UUID) (*RideDTO, error) {
	r, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !r.IsOwnedBy(driverID) {
		return nil, domain.NewForbiddenError("ride does not belong to this driver")
	}

	if err := r.Complete(); err != nil {
		return nil, err
	}

	r.IncrementVersion()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	evt := events.RideStatusEvent{
		RideID:     r.ID(),
		DriverID:   r.DriverID(),
		Status:     r.Status().String(),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicRideEvents, events.RideCompleted, evt)

	result := toRideDTO(r)
	return &result, nil
}

// CancelRide cancels a ride. Only the owning driver may cancel.
func (s *RideService) CancelRide(ctx context.Context, rideID, driverID uuid.UUID) (*RideDTO, error) {
	r, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !r.IsOwnedBy(driverID) {
		return nil, domain.NewForbiddenError("ride does not belong to this driver")
	}
	return s.cancel(ctx, r)
}

// CancelDriverRides cancels all of a driver's non-terminal rides. Used when
// the identity service reports the account deactivated.
func (s *RideService) CancelDriverRides(ctx context.Context, driverID uuid.UUID) (int, error) {
	rides, err := s.repo.FindActiveByDriverID(ctx, driverID)
	if err != nil {
		return 0, fmt.Errorf("failed to find driver rides: %w", err)
	}

	cancelled := 0
	for _, r := range rides {
		if _, err := s.cancel(ctx, r); err != nil {
			s.logger.Error("failed to cancel ride for deactivated driver",
				zap.String("ride_id", r.ID().String()),
				zap.Error(err),
			)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// UpdateRide applies a partial update to a ride. Only the owning driver may
// update, and only while the ride is not in a terminal state.
func (s *RideService) UpdateRide(ctx context.Context, rideID, driverID uuid.UUID, req UpdateRideRequest) (*RideDTO, error) {
	r, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !r.IsOwnedBy(driverID) {
		return nil, domain.NewForbiddenError("ride does not belong to this driver")
	}

	upd := rideDomain.Update{
		Origin:         req.Origin,
		Destination:    req.Destination,
		DepartureTime:  req.DepartureTime,
		AvailableSeats: req.AvailableSeats,
		PricePerSeat:   req.PricePerSeat,
		Vehicle:        req.Vehicle,
		Preferences:    req.Preferences,
		Notes:          req.Notes,
	}
	if err := r.Update(upd); err != nil {
		return nil, err
	}

	r.IncrementVersion()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	result := toRideDTO(r)
	return &result, nil
}

// GetDriverRides retrieves paginated rides published by the given driver.
func (s *RideService) GetDriverRides(ctx context.Context, driverID uuid.UUID, page, limit int) (*domain.PaginatedResult[RideDTO], error) {
	rides, total, err := s.repo.FindByDriverID(ctx, driverID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]RideDTO, len(rides))
	for i, r := range rides {
		dtos[i] = toRideDTO(r)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// RideStatsDTO holds ride statistics for the admin dashboard.
type RideStatsDTO struct {
	TotalRides int64            `json:"total_rides"`
	ByStatus   map[string]int64 `json:"by_status"`
}

// ListAllRides returns a paginated list of all rides (admin).
func (s *RideService) ListAllRides(ctx context.Context, page, limit int) ([]RideDTO, int64, error) {
	rides, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}

	dtos := make([]RideDTO, len(rides))
	for i, r := range rides {
		dtos[i] = toRideDTO(r)
	}
	return dtos, total, nil
}

// GetRideStats returns aggregate ride statistics (admin).
func (s *RideService) GetRideStats(ctx context.Context) (*RideStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ride stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &RideStatsDTO{
		TotalRides: total,
		ByStatus:   counts,
	}, nil
}

// --- Helpers ---

// validateOrigin rejects out-of-range or non-finite search coordinates so the
// geo math never sees them.
func validateOrigin(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return domain.NewValidationError("origin latitude must be between -90 and 90")
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return domain.NewValidationError("origin longitude must be between -180 and 180")
	}
	return nil
}

func (s *RideService) cancel(ctx context.Context, r *rideDomain.Ride) (*RideDTO, error) {
	if err := r.Cancel(); err != nil {
		return nil, err
	}

	r.IncrementVersion()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	evt := events.RideStatusEvent{
		RideID:     r.ID(),
		DriverID:   r.DriverID(),
		Status:     r.Status().String(),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicRideEvents, events.RideCancelled, evt)

	result := toRideDTO(r)
	return &result, nil
}

func toRideDTO(r *rideDomain.Ride) RideDTO {
	return RideDTO{
		ID:                r.ID(),
		DriverID:          r.DriverID(),
		Origin:            r.Origin(),
		Destination:       r.Destination(),
		DepartureTime:     r.DepartureTime(),
		AvailableSeats:    r.AvailableSeats(),
		PricePerSeat:      r.PricePerSeat(),
		Vehicle:           r.Vehicle(),
		Preferences:       r.Preferences(),
		Status:            r.Status().String(),
		IsRecurring:       r.IsRecurring(),
		RecurringSchedule: r.RecurringSchedule(),
		Notes:             r.Notes(),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
	}
}

func (s *RideService) publishRideCreated(ctx context.Context, r *rideDomain.Ride) {
	evt := events.RideCreatedEvent{
		RideID:         r.ID(),
		DriverID:       r.DriverID(),
		OriginLat:      r.Origin().Lat,
		OriginLng:      r.Origin().Lng,
		DestinationLat: r.Destination().Lat,
		DestinationLng: r.Destination().Lng,
		DepartureTime:  r.DepartureTime(),
		AvailableSeats: r.AvailableSeats(),
		PricePerSeat:   r.PricePerSeat(),
		OccurredAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicRideEvents, events.RideCreated, evt)
}

func (s *RideService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-rides", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
