package persistence

import "errors"

// Standard persistence error types that all implementations should use.
// A not-found result is an explicit answer to the caller, not a system
// failure.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates an execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrReminderNotFound indicates a reminder was not found by the given identifier.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrApprovalNotFound indicates an approval request was not found by the given identifier.
	ErrApprovalNotFound = errors.New("approval request not found")
)

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsReminderNotFound checks if an error indicates a reminder was not found.
func IsReminderNotFound(err error) bool {
	return errors.Is(err, ErrReminderNotFound)
}

// IsApprovalNotFound checks if an error indicates an approval request was not found.
func IsApprovalNotFound(err error) bool {
	return errors.Is(err, ErrApprovalNotFound)
}

// IsNotFound checks for any of the entity not-found sentinels.
func IsNotFound(err error) bool {
	return IsWorkflowNotFound(err) || IsExecutionNotFound(err) || IsReminderNotFound(err) || IsApprovalNotFound(err)
}
