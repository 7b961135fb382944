package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rideshare-platform/service-rides/internal/application"
	"github.com/rideshare-platform/service-rides/internal/pkg/auth"
	"github.com/rideshare-platform/service-rides/internal/pkg/middleware"
	"github.com/rideshare-platform/service-rides/internal/pkg/response"
)

// AdminRideHandler handles admin HTTP requests for ride management.
type AdminRideHandler struct {
	service *application.RideService
}

// NewAdminRideHandler creates a new AdminRideHandler.
func NewAdminRideHandler(service *application.RideService) *AdminRideHandler {
	return &AdminRideHandler{service: service}
}

// RegisterRoutes registers admin ride routes.
func (h *AdminRideHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW)
	{
		admin.GET("/rides", h.ListRides)
		admin.GET("/stats/rides", h.RideStats)
	}
}

// ListRides handles GET /api/v1/admin/rides.
func (h *AdminRideHandler) ListRides(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	rides, total, err := h.service.ListAllRides(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, rides, total, page, limit)
}

// RideStats handles GET /api/v1/admin/stats/rides.
func (h *AdminRideHandler) RideStats(c *gin.Context) {
	stats, err := h.service.GetRideStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
