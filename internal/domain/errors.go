package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput      = "INVALID_INPUT"
	ErrValidation        = "VALIDATION_ERROR"
	ErrInsufficientData  = "INSUFFICIENT_RISK_DATA"
	ErrStore             = "STORE_ERROR"
	ErrRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrStatusUnavailable = "STATUS_REPOSITORY_UNAVAILABLE"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is returned when a required identity field (age, sex)
// is missing or cannot be parsed. It is never silently defaulted.
type ValidationError struct {
	Code    string      `json:"code"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// InsufficientRiskDataError is the soft failure of the risk estimator.
// Callers must treat it as "no risk-based recommendations", not as fatal.
type InsufficientRiskDataError struct {
	Missing []string `json:"missing"`
}

func (e *InsufficientRiskDataError) Error() string {
	return fmt.Sprintf("insufficient data for cardiovascular risk: missing %s", strings.Join(e.Missing, ", "))
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Code:    ErrValidation,
		Field:   field,
		Message: message,
		Value:   value,
	}
}
