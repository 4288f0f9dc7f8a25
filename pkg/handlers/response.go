package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
)

// ApiResponse wraps data in the format expected by the console front-end.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// serviceErrorResponse maps the service error taxonomy onto HTTP statuses.
// Unknown errors become opaque 500s so storage details never leak to callers.
func serviceErrorResponse(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", "Document not found")
	case errors.Is(err, apperrors.ErrInvalidContainer):
		return ErrorResponse(w, http.StatusBadRequest, "invalid_container", err.Error())
	case errors.Is(err, apperrors.ErrInvalidDatabase):
		return ErrorResponse(w, http.StatusBadRequest, "invalid_database", err.Error())
	case errors.Is(err, apperrors.ErrInvalidField):
		return ErrorResponse(w, http.StatusBadRequest, "invalid_field", err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		return ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
