//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rideshare-platform/service-rides/internal/application"
	rideDomain "github.com/rideshare-platform/service-rides/internal/domain/ride"
	"github.com/rideshare-platform/service-rides/internal/pkg/events"
)

// TestUserDeactivated_CancelsDriverRides verifies that when a
// UserDeactivatedEvent is published to user.events, the rides service picks it
// up and cancels every open ride of that driver.
func TestUserDeactivated_CancelsDriverRides(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	driverID := uuid.New()
	identityStub := startIdentityStub(t, driverID)

	stack := setupRideStack(t, infra.DB, infra.KafkaBrokers, identityStub.URL)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Seed an active ride for the driver.
	rideID := uuid.New()
	seedActiveRide(t, infra.DB, rideID, driverID)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish UserDeactivatedEvent.
	evt := events.UserDeactivatedEvent{
		UserID:     driverID,
		Reason:     "account suspended",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicUserEvents,
		"service-users", events.UserDeactivated, evt)

	// Assert: ride transitions to "cancelled" with a bumped version.
	model := waitForRideStatus(t, infra.DB, rideID, "cancelled", 15*time.Second)
	assert.Equal(t, int64(2), model.Version)

	// Assert: RideCancelledEvent on ride.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicRideEvents,
		events.RideCancelled, 15*time.Second)

	var cancelled events.RideStatusEvent
	require.NoError(t, ce.ParseData(&cancelled))
	assert.Equal(t, rideID, cancelled.RideID)
	assert.Equal(t, driverID, cancelled.DriverID)
	assert.Equal(t, "cancelled", cancelled.Status)
}

// TestPublishAndSearch_EndToEnd verifies the publish-then-discover flow against
// real PostgreSQL: a published ride is immediately findable by a nearby search
// and invisible to a distant one.
func TestPublishAndSearch_EndToEnd(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	driverID := uuid.New()
	identityStub := startIdentityStub(t, driverID)

	stack := setupRideStack(t, infra.DB, infra.KafkaBrokers, identityStub.URL)
	defer stack.CleanupProducer()

	req := application.CreateRideRequest{
		Origin:         rideDomain.Location{Address: "Apple Park, Cupertino, CA", Lat: 37.3349, Lng: -122.0090},
		Destination:    rideDomain.Location{Address: "Stanford University, Stanford, CA", Lat: 37.4419, Lng: -122.1430},
		DepartureTime:  time.Now().UTC().Add(3 * time.Hour),
		AvailableSeats: 3,
		PricePerSeat:   12.50,
		Vehicle:        rideDomain.Vehicle{Make: "Honda", Model: "Civic", Year: 2020, LicensePlate: "8XYZ900"},
	}

	dto, err := stack.Service.PublishRide(context.Background(), driverID, req)
	require.NoError(t, err)
	assert.Equal(t, "active", dto.Status)

	// Nearby search finds the ride.
	lat, lng := 37.3350, -122.0095
	results, err := stack.Service.SearchRides(context.Background(),
		application.SearchQuery{OriginLat: &lat, OriginLng: &lng})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, dto.ID, results[0].ID)

	// A search centered ~60 km away finds nothing.
	farLat, farLng := 37.8716, -122.2727
	results, err = stack.Service.SearchRides(context.Background(),
		application.SearchQuery{OriginLat: &farLat, OriginLng: &farLng})
	require.NoError(t, err)
	assert.Empty(t, results)

	// Assert: RideCreatedEvent on ride.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicRideEvents,
		events.RideCreated, 15*time.Second)

	var created events.RideCreatedEvent
	require.NoError(t, ce.ParseData(&created))
	assert.Equal(t, dto.ID, created.RideID)
	assert.Equal(t, driverID, created.DriverID)
	assert.Equal(t, 3, created.AvailableSeats)
}

// TestUnknownDriver_RidePublishRejected verifies that a publish attempt by a
// driver the identity service does not know is rejected and nothing is stored.
func TestUnknownDriver_RidePublishRejected(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	identityStub := startIdentityStub(t) // knows no drivers
	stack := setupRideStack(t, infra.DB, infra.KafkaBrokers, identityStub.URL)
	defer stack.CleanupProducer()

	req := application.CreateRideRequest{
		Origin:         rideDomain.Location{Address: "Apple Park, Cupertino, CA", Lat: 37.3349, Lng: -122.0090},
		Destination:    rideDomain.Location{Address: "Stanford University, Stanford, CA", Lat: 37.4419, Lng: -122.1430},
		DepartureTime:  time.Now().UTC().Add(3 * time.Hour),
		AvailableSeats: 2,
		PricePerSeat:   8.00,
		Vehicle:        rideDomain.Vehicle{Make: "Mazda", Model: "CX-5", Year: 2018, LicensePlate: "5LMN456"},
	}

	_, err := stack.Service.PublishRide(context.Background(), uuid.New(), req)
	require.Error(t, err)

	results, err := stack.Service.SearchRides(context.Background(), application.SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
