// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/fanstore-backend/internal/utils"
)

// Error kinds returned by the services. Handlers map them to HTTP statuses
// with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("not allowed")
	ErrConflict        = errors.New("conflict")
	ErrDuplicateReview = errors.New("duplicate review")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrQuantityFloor   = errors.New("quantity cannot go below 1")
	ErrMissingIdentity = errors.New("userId or guestId is required")
)

// ServiceError carries a caller-facing message and the kind it belongs to.
type ServiceError struct {
	Kind    error
	Message string
	// Resource names the missing entity for ErrNotFound ("product", "order", ...).
	Resource string
	// Details holds per-field validation errors, if any.
	Details interface{}
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Kind }

func validationError(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(resource string) error {
	return &ServiceError{Kind: ErrNotFound, Message: strings.ReplaceAll(resource, "_", " ") + " not found", Resource: resource}
}

func unauthorized(message string) error {
	return &ServiceError{Kind: ErrUnauthorized, Message: message}
}

func conflict(message string) error {
	return &ServiceError{Kind: ErrConflict, Message: message}
}

// validateRequest runs the struct validator and reports the first field
// error as the message, keeping every field error in Details.
func validateRequest(req interface{}) error {
	err := utils.ValidateStruct(req)
	if err == nil {
		return nil
	}
	fieldErrors := utils.GetValidationErrors(err)
	if len(fieldErrors) == 0 {
		return validationError("%v", err)
	}
	return &ServiceError{Kind: ErrValidation, Message: fieldErrors[0].Message, Details: fieldErrors}
}

// isNotFound is gorm.ErrRecordNotFound under any wrapping.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
