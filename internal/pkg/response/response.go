package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
)

// envelope is the common JSON response shape.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// paginatedEnvelope adds paging metadata to the common shape.
type paginatedEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, paginatedEnvelope{
		Success: true,
		Data:    items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: message})
}

// Error maps a domain error to its HTTP status. Internal and upstream failures
// return a generic message so storage or dependency details never leak.
func Error(c *gin.Context, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindDriverNotFound:
		c.JSON(http.StatusBadRequest, envelope{Success: false, Error: err.Error()})
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, envelope{Success: false, Error: err.Error()})
	case domain.KindConflict:
		c.JSON(http.StatusConflict, envelope{Success: false, Error: err.Error()})
	case domain.KindForbidden:
		c.JSON(http.StatusForbidden, envelope{Success: false, Error: err.Error()})
	case domain.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Error: err.Error()})
	case domain.KindUpstreamUnavailable:
		c.JSON(http.StatusBadGateway, envelope{Success: false, Error: "upstream service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Error: "internal server error"})
	}
}
