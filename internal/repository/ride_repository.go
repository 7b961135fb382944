package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	rideDomain "github.com/rideshare-platform/service-rides/internal/domain/ride"
	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
)

// RideModel is the GORM model for the rides table. Columns mirror the static
// DDL in migrations/; validation lives in the domain layer, not here.
type RideModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverID uuid.UUID `gorm:"type:uuid;index;not null"`

	OriginAddress string  `gorm:"not null;size:500"`
	OriginLat     float64 `gorm:"not null;index:ix_rides_origin_coords"`
	OriginLng     float64 `gorm:"not null;index:ix_rides_origin_coords"`

	DestinationAddress string  `gorm:"not null;size:500"`
	DestinationLat     float64 `gorm:"not null"`
	DestinationLng     float64 `gorm:"not null"`

	DepartureTime  time.Time `gorm:"not null;index"`
	AvailableSeats int       `gorm:"not null"`
	PricePerSeat   float64   `gorm:"not null;type:numeric(10,2)"`

	VehicleMake         string `gorm:"not null;size:100"`
	VehicleModel        string `gorm:"not null;size:100"`
	VehicleYear         int    `gorm:"not null"`
	VehicleLicensePlate string `gorm:"not null;size:20"`
	VehicleColor        string `gorm:"size:50"`

	Preferences       json.RawMessage `gorm:"type:jsonb"`
	Status            string          `gorm:"not null;size:20;index"`
	IsRecurring       bool            `gorm:"not null;default:false"`
	RecurringSchedule json.RawMessage `gorm:"type:jsonb"`
	Notes             string          `gorm:"size:1000"`

	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RideModel) TableName() string {
	return "rides"
}

// GormRideRepository is the GORM-based implementation of ride.Repository.
type GormRideRepository struct {
	db *gorm.DB
}

// NewGormRideRepository creates a new GormRideRepository.
func NewGormRideRepository(db *gorm.DB) *GormRideRepository {
	return &GormRideRepository{db: db}
}

// Save persists a new ride.
func (r *GormRideRepository) Save(ctx context.Context, rd *rideDomain.Ride) error {
	model, err := toRideModel(rd)
	if err != nil {
		return fmt.Errorf("failed to convert ride to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save ride: %w", err)
	}
	return nil
}

// FindByID retrieves a ride by its unique identifier.
func (r *GormRideRepository) FindByID(ctx context.Context, id uuid.UUID) (*rideDomain.Ride, error) {
	var model RideModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Ride", id.String())
		}
		return nil, fmt.Errorf("failed to find ride by ID: %w", err)
	}
	return toDomainRide(&model)
}

// FindCandidates retrieves active rides matching the coarse filter. The result
// set is unordered; the search layer handles ordering and radius filtering.
func (r *GormRideRepository) FindCandidates(ctx context.Context, filter rideDomain.CandidateFilter) ([]*rideDomain.Ride, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", rideDomain.StatusActive.String()).
		Where("available_seats >= ?", filter.MinSeats).
		Where("departure_time >= ?", filter.DepartureAfter)

	if filter.DepartureDate != nil {
		dayStart := filter.DepartureDate.UTC().Truncate(24 * time.Hour)
		q = q.Where("departure_time >= ? AND departure_time < ?", dayStart, dayStart.Add(24*time.Hour))
	}

	var models []RideModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query ride candidates: %w", err)
	}
	return toDomainRides(models)
}

// FindByDriverID retrieves rides for a specific driver with pagination.
func (r *GormRideRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*rideDomain.Ride, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RideModel{}).Where("driver_id = ?", driverID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count driver rides: %w", err)
	}

	var models []RideModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("departure_time ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find driver rides: %w", err)
	}

	rides, err := toDomainRides(models)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// FindActiveByDriverID retrieves a driver's non-terminal rides.
func (r *GormRideRepository) FindActiveByDriverID(ctx context.Context, driverID uuid.UUID) ([]*rideDomain.Ride, error) {
	var models []RideModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("status IN ?", []string{
			rideDomain.StatusActive.String(),
			rideDomain.StatusFull.String(),
		}).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active driver rides: %w", err)
	}
	return toDomainRides(models)
}

// ListAll retrieves all rides with pagination (admin).
func (r *GormRideRepository) ListAll(ctx context.Context, page, limit int) ([]*rideDomain.Ride, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RideModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	var models []RideModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}

	rides, err := toDomainRides(models)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// CountByStatus returns ride counts grouped by status (admin).
func (r *GormRideRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&RideModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Update persists changes to an existing ride with optimistic locking. This is
// what serializes concurrent seat bookings on the same ride: the UPDATE only
// lands when the stored version matches the one the aggregate was loaded at.
func (r *GormRideRepository) Update(ctx context.Context, rd *rideDomain.Ride) error {
	model, err := toRideModel(rd)
	if err != nil {
		return fmt.Errorf("failed to convert ride to model: %w", err)
	}

	expectedVersion := rd.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&RideModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"origin_address":        model.OriginAddress,
			"origin_lat":            model.OriginLat,
			"origin_lng":            model.OriginLng,
			"destination_address":   model.DestinationAddress,
			"destination_lat":       model.DestinationLat,
			"destination_lng":       model.DestinationLng,
			"departure_time":        model.DepartureTime,
			"available_seats":       model.AvailableSeats,
			"price_per_seat":        model.PricePerSeat,
			"vehicle_make":          model.VehicleMake,
			"vehicle_model":         model.VehicleModel,
			"vehicle_year":          model.VehicleYear,
			"vehicle_license_plate": model.VehicleLicensePlate,
			"vehicle_color":         model.VehicleColor,
			"preferences":           model.Preferences,
			"status":                model.Status,
			"is_recurring":          model.IsRecurring,
			"recurring_schedule":    model.RecurringSchedule,
			"notes":                 model.Notes,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update ride: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("ride was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toRideModel(rd *rideDomain.Ride) (*RideModel, error) {
	var preferences json.RawMessage
	if rd.Preferences() != nil {
		data, err := json.Marshal(rd.Preferences())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal preferences: %w", err)
		}
		preferences = data
	}

	var schedule json.RawMessage
	if rd.RecurringSchedule() != nil {
		data, err := json.Marshal(rd.RecurringSchedule())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal recurring schedule: %w", err)
		}
		schedule = data
	}

	return &RideModel{
		ID:                  rd.ID(),
		DriverID:            rd.DriverID(),
		OriginAddress:       rd.Origin().Address,
		OriginLat:           rd.Origin().Lat,
		OriginLng:           rd.Origin().Lng,
		DestinationAddress:  rd.Destination().Address,
		DestinationLat:      rd.Destination().Lat,
		DestinationLng:      rd.Destination().Lng,
		DepartureTime:       rd.DepartureTime(),
		AvailableSeats:      rd.AvailableSeats(),
		PricePerSeat:        rd.PricePerSeat(),
		VehicleMake:         rd.Vehicle().Make,
		VehicleModel:        rd.Vehicle().Model,
		VehicleYear:         rd.Vehicle().Year,
		VehicleLicensePlate: rd.Vehicle().LicensePlate,
		VehicleColor:        rd.Vehicle().Color,
		Preferences:         preferences,
		Status:              rd.Status().String(),
		IsRecurring:         rd.IsRecurring(),
		RecurringSchedule:   schedule,
		Notes:               rd.Notes(),
		Version:             rd.Version(),
		CreatedAt:           rd.CreatedAt(),
		UpdatedAt:           rd.UpdatedAt(),
	}, nil
}

func toDomainRide(m *RideModel) (*rideDomain.Ride, error) {
	var preferences map[string]interface{}
	if len(m.Preferences) > 0 {
		if err := json.Unmarshal(m.Preferences, &preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	var schedule map[string]interface{}
	if len(m.RecurringSchedule) > 0 {
		if err := json.Unmarshal(m.RecurringSchedule, &schedule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recurring schedule: %w", err)
		}
	}

	status, err := rideDomain.ParseRideStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return rideDomain.Reconstruct(
		m.ID,
		m.DriverID,
		rideDomain.Location{Address: m.OriginAddress, Lat: m.OriginLat, Lng: m.OriginLng},
		rideDomain.Location{Address: m.DestinationAddress, Lat: m.DestinationLat, Lng: m.DestinationLng},
		m.DepartureTime,
		m.AvailableSeats,
		m.PricePerSeat,
		rideDomain.Vehicle{
			Make:         m.VehicleMake,
			Model:        m.VehicleModel,
			Year:         m.VehicleYear,
			LicensePlate: m.VehicleLicensePlate,
			Color:        m.VehicleColor,
		},
		preferences,
		m.Notes,
		m.IsRecurring,
		schedule,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainRides(models []RideModel) ([]*rideDomain.Ride, error) {
	rides := make([]*rideDomain.Ride, len(models))
	for i, m := range models {
		rd, err := toDomainRide(&m)
		if err != nil {
			return nil, err
		}
		rides[i] = rd
	}
	return rides, nil
}
