package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rideshare-platform/service-rides/internal/application"
	"github.com/rideshare-platform/service-rides/internal/pkg/auth"
	"github.com/rideshare-platform/service-rides/internal/pkg/middleware"
	"github.com/rideshare-platform/service-rides/internal/pkg/response"
)

// RideHandler handles HTTP requests for ride operations.
type RideHandler struct {
	service *application.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(service *application.RideService) *RideHandler {
	return &RideHandler{service: service}
}

// RegisterRoutes registers all ride routes on the given router group.
// Discovery endpoints are public; everything that mutates requires a verified
// bearer identity.
func (h *RideHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	rides := r.Group("/api/v1/rides")
	{
		rides.GET("", h.SearchRides)
		rides.GET("/:id", h.GetRide)

		rides.POST("", authMW, h.PublishRide)
		rides.PATCH("/:id", authMW, h.UpdateRide)
		rides.POST("/:id/book", authMW, h.BookSeats)
		rides.POST("/:id/release", authMW, h.ReleaseSeats)
		rides.POST("/:id/cancel", authMW, h.CancelRide)
		rides.POST("/:id/complete", authMW, h.CompleteRide)
		rides.GET("/driver/me", authMW, h.GetMyRides)
	}
}

// PublishRide handles POST /api/v1/rides.
func (h *RideHandler) PublishRide(c *gin.Context) {
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.PublishRide(c.Request.Context(), driverID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// SearchRides handles GET /api/v1/rides.
func (h *RideHandler) SearchRides(c *gin.Context) {
	query, err := parseSearchQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	results, err := h.service.SearchRides(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, results)
}

// GetRide handles GET /api/v1/rides/:id.
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	result, err := h.service.GetRide(c.Request.Context(), rideID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateRide handles PATCH /api/v1/rides/:id.
func (h *RideHandler) UpdateRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateRide(c.Request.Context(), rideID, driverID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// seatsRequest is the body for seat booking and release.
type seatsRequest struct {
	Seats int `json:"seats"`
}

// BookSeats handles POST /api/v1/rides/:id/book.
func (h *RideHandler) BookSeats(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	req := seatsRequest{Seats: 1}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.BookSeats(c.Request.Context(), rideID, req.Seats)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReleaseSeats handles POST /api/v1/rides/:id/release.
func (h *RideHandler) ReleaseSeats(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	req := seatsRequest{Seats: 1}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.ReleaseSeats(c.Request.Context(), rideID, req.Seats)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelRide handles POST /api/v1/rides/:id/cancel.
func (h *RideHandler) CancelRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.CancelRide(c.Request.Context(), rideID, driverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteRide handles POST /api/v1/rides/:id/complete.
func (h *RideHandler) CompleteRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.CompleteRide(c.Request.Context(), rideID, driverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetMyRides handles GET /api/v1/rides/driver/me.
func (h *RideHandler) GetMyRides(c *gin.Context) {
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetDriverRides(c.Request.Context(), driverID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// parseSearchQuery extracts and type-checks search parameters.
func parseSearchQuery(c *gin.Context) (application.SearchQuery, error) {
	var query application.SearchQuery

	if raw := c.Query("originLat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return query, errInvalidParam("originLat")
		}
		query.OriginLat = &lat
	}
	if raw := c.Query("originLng"); raw != "" {
		lng, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return query, errInvalidParam("originLng")
		}
		query.OriginLng = &lng
	}
	if (query.OriginLat == nil) != (query.OriginLng == nil) {
		return query, errInvalidParam("originLat/originLng must be supplied together")
	}

	if raw := c.Query("minSeats"); raw != "" {
		seats, err := strconv.Atoi(raw)
		if err != nil {
			return query, errInvalidParam("minSeats")
		}
		query.MinSeats = seats
	}
	if raw := c.Query("proximityKm"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return query, errInvalidParam("proximityKm")
		}
		query.ProximityKm = km
	}
	if raw := c.Query("departureDate"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return query, errInvalidParam("departureDate")
		}
		query.DepartureDate = &date
	}

	return query, nil
}

type paramError string

func (e paramError) Error() string { return string(e) }

func errInvalidParam(name string) error {
	return paramError("invalid query parameter: " + name)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
