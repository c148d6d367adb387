// Package persistence provides standardized error types for persistence operations.
package persistence

import "errors"

// Standard persistence error types that all implementations should use.
var (
	ErrOrganizationNotFound    = errors.New("organization not found")
	ErrClientNotFound          = errors.New("client not found")
	ErrDirectoryNotFound       = errors.New("directory not found")
	ErrWorkflowNotFound        = errors.New("workflow not found")
	ErrExecutionNotFound       = errors.New("execution not found")
	ErrBulkMessageNotFound     = errors.New("bulk message not found")
	ErrRecipientNotFound       = errors.New("recipient not found")
	ErrScheduledActionNotFound = errors.New("scheduled action not found")
	ErrSocialPostNotFound      = errors.New("social post not found")
)

// IsNotFound checks if an error indicates any entity lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrganizationNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrDirectoryNotFound) ||
		errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrBulkMessageNotFound) ||
		errors.Is(err, ErrRecipientNotFound) ||
		errors.Is(err, ErrScheduledActionNotFound) ||
		errors.Is(err, ErrSocialPostNotFound)
}

func IsClientNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

func IsDirectoryNotFound(err error) bool {
	return errors.Is(err, ErrDirectoryNotFound)
}

func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

func IsBulkMessageNotFound(err error) bool {
	return errors.Is(err, ErrBulkMessageNotFound)
}
