package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the JSON error body every handler returns.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithDetails returns a copy of e carrying details. The shared Err* values are never mutated.
func (e *APIError) WithDetails(details string) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrInvalidInput       = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrInvalidCoordinates = NewAPIError("INVALID_COORDINATES", "Latitude must be within [-90, 90] and longitude within [-180, 180]", http.StatusBadRequest)
	ErrInvalidFilter      = NewAPIError("INVALID_FILTER", "Unrecognized filter value", http.StatusBadRequest)
	ErrInvalidMapView     = NewAPIError("INVALID_MAP_VIEW", "Map center must be a valid coordinate and zoom must be positive", http.StatusBadRequest)
	ErrUnauthorized       = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrNotFound           = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrNoLocation         = NewAPIError("NO_LOCATION", "No known location for this session", http.StatusNotFound)
	ErrInternal           = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// Wrap converts err into an APIError, keeping any APIError already in its chain.
func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}
