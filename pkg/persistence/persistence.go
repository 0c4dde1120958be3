// Package persistence provides the data storage abstraction for workflows,
// executions, reminders and approval requests.
package persistence

import (
	"context"
	"time"

	"github.com/agarg/collabot/pkg/models"
)

// Persistence is the injectable storage port. Workflow definitions are
// expected to be durable across restarts; the remaining repositories may be
// memory-backed, but engine logic only ever sees these interfaces.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	ReminderRepository() ReminderRepository
	ApprovalRepository() ApprovalRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error)
	WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	// EnabledByTriggerType returns all enabled definitions of the given
	// trigger type, in no particular order.
	EnabledByTriggerType(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowDefinition, error)
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records. Update runs fn on the stored
// record under the store's lock, so read-modify-write sequences (state
// transitions, cancellation) are atomic and readers never observe torn
// state. If fn returns an error the record is left unchanged.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	UpdateExecution(ctx context.Context, id string, fn func(*models.Execution) error) (*models.Execution, error)
}

type ReminderRepository interface {
	SaveReminder(ctx context.Context, reminder *models.Reminder) error
	ReminderByID(ctx context.Context, id string) (*models.Reminder, error)
	RemindersByOwner(ctx context.Context, owner string) ([]*models.Reminder, error)
	// DueReminders returns active, untriggered reminders with remindAt <= now.
	DueReminders(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	UpdateReminder(ctx context.Context, id string, fn func(*models.Reminder) error) (*models.Reminder, error)
}

// ApprovalRepository stores approval requests. UpdateApproval is the atomic
// unit for "upsert vote + recompute status".
type ApprovalRepository interface {
	SaveApproval(ctx context.Context, request *models.ApprovalRequest) error
	ApprovalByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	PendingApprovalsForApprover(ctx context.Context, approverID string) ([]*models.ApprovalRequest, error)
	UpdateApproval(ctx context.Context, id string, fn func(*models.ApprovalRequest) error) (*models.ApprovalRequest, error)
}
