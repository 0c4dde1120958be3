// Package memory provides a mutex-protected in-memory persistence
// implementation, used as the default store for volatile entities and in
// tests.
package memory

import (
	"context"

	"github.com/agarg/collabot/pkg/persistence"
)

// Persistence implements persistence.Persistence with in-memory maps.
type Persistence struct {
	workflows  *WorkflowRepository
	executions *ExecutionRepository
	reminders  *ReminderRepository
	approvals  *ApprovalRepository
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows:  NewWorkflowRepository(),
		executions: NewExecutionRepository(),
		reminders:  NewReminderRepository(),
		approvals:  NewApprovalRepository(),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflows
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executions
}

func (p *Persistence) ReminderRepository() persistence.ReminderRepository {
	return p.reminders
}

func (p *Persistence) ApprovalRepository() persistence.ApprovalRepository {
	return p.approvals
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
