package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rideshare-platform/service-rides/internal/application"
	rideDomain "github.com/rideshare-platform/service-rides/internal/domain/ride"
	"github.com/rideshare-platform/service-rides/internal/identity"
	"github.com/rideshare-platform/service-rides/internal/pkg/auth"
	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
	"github.com/rideshare-platform/service-rides/internal/pkg/kafka"
)

// --- Fakes ---

type stubRepo struct {
	rides   map[uuid.UUID]*rideDomain.Ride
	updates int
}

func (s *stubRepo) Save(_ context.Context, r *rideDomain.Ride) error {
	s.rides[r.ID()] = r
	return nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*rideDomain.Ride, error) {
	r, ok := s.rides[id]
	if !ok {
		return nil, domain.NewNotFoundError("ride", id.String())
	}
	return r, nil
}

func (s *stubRepo) FindCandidates(_ context.Context, _ rideDomain.CandidateFilter) ([]*rideDomain.Ride, error) {
	return nil, nil
}

func (s *stubRepo) FindByDriverID(_ context.Context, _ uuid.UUID, _, _ int) ([]*rideDomain.Ride, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) FindActiveByDriverID(_ context.Context, _ uuid.UUID) ([]*rideDomain.Ride, error) {
	return nil, nil
}

func (s *stubRepo) ListAll(_ context.Context, _, _ int) ([]*rideDomain.Ride, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (s *stubRepo) Update(_ context.Context, r *rideDomain.Ride) error {
	s.updates++
	s.rides[r.ID()] = r
	return nil
}

type stubVerifier struct{}

func (stubVerifier) ResolveDriver(_ context.Context, driverID uuid.UUID) (*identity.DriverProfile, error) {
	return &identity.DriverProfile{ID: driverID, IsActive: true}, nil
}

type stubPublisher struct{}

func (stubPublisher) PublishEvent(_ context.Context, _ string, _ kafka.CloudEvent) error {
	return nil
}

func setupSeatsRouter(t *testing.T) (*gin.Engine, *stubRepo, *rideDomain.Ride, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubRepo{rides: make(map[uuid.UUID]*rideDomain.Ride)}
	svc := application.NewRideService(repo, stubVerifier{}, stubPublisher{}, zap.NewNop())

	r, err := rideDomain.NewRide(
		uuid.New(),
		rideDomain.Location{Address: "Apple Park, Cupertino, CA", Lat: 37.3349, Lng: -122.0090},
		rideDomain.Location{Address: "Stanford University, Stanford, CA", Lat: 37.4419, Lng: -122.1430},
		time.Now().UTC().Add(3*time.Hour),
		3,
		10.00,
		rideDomain.Vehicle{Make: "Honda", Model: "Civic", Year: 2020, LicensePlate: "8XYZ900"},
		nil, "", false, nil,
	)
	require.NoError(t, err)
	repo.rides[r.ID()] = r

	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	token, err := jwtManager.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	router := gin.New()
	NewRideHandler(svc).RegisterRoutes(&router.RouterGroup, jwtManager)

	return router, repo, r, token
}

func postSeats(t *testing.T, router *gin.Engine, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBookSeats_MalformedBodyRejected(t *testing.T) {
	router, repo, r, token := setupSeatsRouter(t)

	w := postSeats(t, router, "/api/v1/rides/"+r.ID().String()+"/book", token, `{"seats":"two"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 3, r.AvailableSeats())
	assert.Equal(t, 0, repo.updates)
}

func TestBookSeats_EmptyBodyDefaultsToOneSeat(t *testing.T) {
	router, repo, r, token := setupSeatsRouter(t)

	w := postSeats(t, router, "/api/v1/rides/"+r.ID().String()+"/book", token, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, r.AvailableSeats())
	assert.Equal(t, 1, repo.updates)
}

func TestBookSeats_ExplicitSeatCount(t *testing.T) {
	router, _, r, token := setupSeatsRouter(t)

	w := postSeats(t, router, "/api/v1/rides/"+r.ID().String()+"/book", token, `{"seats":2}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, r.AvailableSeats())
}

func TestReleaseSeats_MalformedBodyRejected(t *testing.T) {
	router, repo, r, token := setupSeatsRouter(t)
	require.NoError(t, r.BookSeats(2))

	w := postSeats(t, router, "/api/v1/rides/"+r.ID().String()+"/release", token, `{"seats":[1]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, r.AvailableSeats())
	assert.Equal(t, 0, repo.updates)
}
