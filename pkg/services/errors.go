// Package services provides the business operations of the automation core.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. Validation errors map to HTTP 400, conflicts to 409.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnknownTrigger     = errors.New("unknown trigger type")
	ErrUnknownStepType    = errors.New("unknown step type")
	ErrUnknownEventType   = errors.New("unknown event type")
	ErrParentNotFound     = errors.New("parent directory not found")
	ErrRecipientsRequired = errors.New("bulk message requires at least one recipient")

	ErrDirectoryIntoSelf       = errors.New("cannot move directory into itself")
	ErrDirectoryIntoDescendant = errors.New("cannot move directory into its own descendant")
	ErrExecutionFinished       = errors.New("execution already reached a terminal status")
	ErrCampaignNotSendable     = errors.New("bulk message cannot be sent in its current status")
	ErrPostNotPublishable      = errors.New("post cannot be published in its current status")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks whether an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownTrigger) ||
		errors.Is(err, ErrUnknownStepType) ||
		errors.Is(err, ErrUnknownEventType) ||
		errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrRecipientsRequired)
}

// IsConflictError checks whether an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDirectoryIntoSelf) ||
		errors.Is(err, ErrDirectoryIntoDescendant) ||
		errors.Is(err, ErrExecutionFinished) ||
		errors.Is(err, ErrCampaignNotSendable) ||
		errors.Is(err, ErrPostNotPublishable)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
