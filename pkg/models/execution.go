package models

import "time"

// ExecutionStatus is the lifecycle state of an execution. Transitions are
// monotonic: once a terminal status is reached no further mutation happens.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
)

// IsTerminal reports whether s admits no further transitions.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// Execution is one runtime instance of a workflow's action list, created
// exactly once per trigger match. The worker task owns all writes; other
// callers only read snapshots.
type Execution struct {
	ID               string            `json:"id"`
	WorkflowID       string            `json:"workflow_id"`
	WorkflowName     string            `json:"workflow_name"`
	Actions          []Action          `json:"actions"`
	Context          map[string]any    `json:"context,omitempty"`
	Status           ExecutionStatus   `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CompletedActions []string          `json:"completed_actions"`
	FailedActions    map[string]string `json:"failed_actions"`
	Error            string            `json:"error,omitempty"`
}

// ExecutionContext carries per-execution data into action handlers.
type ExecutionContext struct {
	ExecutionID  string         `json:"execution_id"`
	WorkflowID   string         `json:"workflow_id"`
	WorkflowName string         `json:"workflow_name"`
	EventData    map[string]any `json:"event_data,omitempty"`
}
