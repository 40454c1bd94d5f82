package service

import (
	"errors"
	"fmt"

	"github.com/corvid-labs/postboard/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrUnknownCategory indicates a post references a category that does
	// not exist. It is a validation error.
	ErrUnknownCategory = fmt.Errorf("unknown category: %w", domain.ErrValidation)

	// ErrInvalidCredentials indicates a login with an unknown email or a
	// wrong password. Both cases are reported identically.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
)

// ServiceError wraps an unexpected failure with the service and operation it
// happened in.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}

// validationFailed marks a domain constructor or mutator error as a
// validation failure while keeping the original sentinel matchable.
func validationFailed(entity string, err error) error {
	if err == nil || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return domain.NewValidationError(entity, err.Error(), fmt.Errorf("%w: %w", domain.ErrValidation, err))
}
