// Package file provides file-based persistence. Workflow definitions are
// durable JSON documents on disk; executions, reminders and approvals are
// volatile and delegate to the in-memory repositories.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/persistence/memory"
)

type Persistence struct {
	root       string
	workflows  *WorkflowRepository
	executions persistence.ExecutionRepository
	reminders  persistence.ReminderRepository
	approvals  persistence.ApprovalRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// The root may be given as a file:// URL.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:       cleanRoot,
		workflows:  NewWorkflowRepository(cleanRoot),
		executions: memory.NewExecutionRepository(),
		reminders:  memory.NewReminderRepository(),
		approvals:  memory.NewApprovalRepository(),
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
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
