package handlers

import (
	"errors"
	"net/http"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Errors renders domain errors. Debug adds the underlying cause to 5xx bodies.
type Errors struct {
	Debug bool
}

func (e Errors) respondError(c *gin.Context, status int, code, message string, cause error) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Success:   false,
		Message:   message,
		Code:      code,
		RequestID: middleware.GetRequestID(c),
	}
	if cause != nil && e.Debug {
		resp.Error = cause.Error()
	}
	if cause != nil {
		_ = c.Error(cause)
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func (e Errors) RespondDomainError(c *gin.Context, err error) {
	var rejected domain.DocumentRejectedError
	switch {
	case domain.IsValidation(err):
		e.respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.As(err, &rejected):
		e.respondError(c, http.StatusBadRequest, string(rejected.Reason), rejected.Error(), nil)
	case domain.IsNotFound(err):
		e.respondError(c, http.StatusNotFound, "not_found", "not found", nil)
	case domain.IsPersistence(err):
		e.respondError(c, http.StatusInternalServerError, "persistence_error", "Terjadi kesalahan server", err)
	case domain.IsInternal(err):
		e.respondError(c, http.StatusInternalServerError, "internal_error", "Terjadi kesalahan server", err)
	default:
		e.respondError(c, http.StatusInternalServerError, "internal_error", "Terjadi kesalahan server", err)
	}
}
