package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fund-tracker/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// respondServiceError maps a service error onto an HTTP response.
func respondServiceError(w http.ResponseWriter, err error) {
	status, code, message, details := mapServiceError(err)
	respondError(w, status, code, message, details)
}

// mapServiceError maps service errors to HTTP status codes.
func mapServiceError(err error) (int, string, string, map[string]interface{}) {
	var serviceErr *types.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Code {
		case types.ErrInvalidInput:
			return http.StatusBadRequest, ErrCodeInvalidInput, serviceErr.Message, serviceErr.Details
		case types.ErrNotFound:
			return http.StatusNotFound, ErrCodeNotFound, serviceErr.Message, serviceErr.Details
		case types.ErrUnauthorized:
			return http.StatusUnauthorized, ErrCodeUnauthorized, serviceErr.Message, serviceErr.Details
		case types.ErrForbidden:
			return http.StatusForbidden, ErrCodeForbidden, serviceErr.Message, serviceErr.Details
		case types.ErrConflict:
			return http.StatusConflict, ErrCodeConflict, serviceErr.Message, serviceErr.Details
		default:
			return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil
		}
	}

	// Default to internal server error
	return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil
}
