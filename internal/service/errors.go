package service

import "errors"

var (
	// ErrValidation marks errors caused by invalid client input
	ErrValidation = errors.New("validation failed")

	// ErrHistoryUnavailable is returned when no history store is configured
	ErrHistoryUnavailable = errors.New("history store is not configured")
)

// ValidationError describes why a request was rejected. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
