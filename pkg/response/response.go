package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/backend/internal/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409 with error message.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// FromError maps a domain error to an HTTP response with a stable
// machine-readable code. Unrecognized errors become a generic 500 so
// internals never leak to clients.
func FromError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, apperr.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, apperr.ErrDuplicatePendingRequest),
		errors.Is(err, apperr.ErrAlreadyApplied),
		errors.Is(err, apperr.ErrInvalidStateTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, apperr.ErrQuotaExceeded):
		status, msg = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, apperr.ErrInvalidValue):
		status, msg = http.StatusBadRequest, err.Error()
	}
	c.JSON(status, Body{Success: false, Code: apperr.Code(err), Error: msg})
}
