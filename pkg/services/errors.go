// Package services provides the workflow service and its error taxonomy.
package services

import (
	"errors"
)

// Validation errors map to HTTP 400 responses.
var (
	ErrWorkflowNil            = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired   = errors.New("workflow name is required")
	ErrInvalidTriggerType     = errors.New("invalid trigger type")
	ErrTriggerPatternRequired = errors.New("message workflows require a trigger pattern")
	ErrActionsRequired        = errors.New("workflow must have at least one action")
	ErrUnknownActionType      = errors.New("unknown action type")
	ErrInvalidActionConfig    = errors.New("invalid action config")
)

// IsValidationError reports whether err should surface as a client error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrInvalidTriggerType) ||
		errors.Is(err, ErrTriggerPatternRequired) ||
		errors.Is(err, ErrActionsRequired) ||
		errors.Is(err, ErrUnknownActionType) ||
		errors.Is(err, ErrInvalidActionConfig)
}
