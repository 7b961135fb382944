package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the service health endpoint.
type Handler struct {
	db      *gorm.DB
	service string
}

// NewHandler creates a health Handler that checks database connectivity.
func NewHandler(db *gorm.DB, service string) *Handler {
	return &Handler{db: db, service: service}
}

// RegisterRoutes mounts the health endpoint on the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Check)
}

// Check handles GET /health. Reports unhealthy with a 503 when the database
// ping fails.
func (h *Handler) Check(c *gin.Context) {
	status := "healthy"
	checks := gin.H{"database": "connected"}
	code := http.StatusOK

	if err := h.pingDatabase(); err != nil {
		status = "unhealthy"
		checks["database"] = "disconnected"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"service":   h.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (h *Handler) pingDatabase() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
