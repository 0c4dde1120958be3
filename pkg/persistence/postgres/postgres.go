// Package postgres provides a PostgreSQL-backed workflow store. The durable
// surface is the bot_workflows table; executions, reminders and approvals
// stay in memory, matching the engine's volatile-state expectations.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/persistence/memory"
)

const schema = `
CREATE TABLE IF NOT EXISTS bot_workflows (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	trigger_type    TEXT NOT NULL,
	trigger_pattern TEXT NOT NULL DEFAULT '',
	actions         JSONB NOT NULL DEFAULT '[]',
	enabled         BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bot_workflows_trigger_type
	ON bot_workflows (trigger_type) WHERE enabled;
`

type Persistence struct {
	db         *sql.DB
	workflows  *WorkflowRepository
	executions persistence.ExecutionRepository
	reminders  persistence.ReminderRepository
	approvals  persistence.ApprovalRepository
}

func NewPersistence(ctx context.Context, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to migrate bot_workflows: %w", err)
	}

	return &Persistence{
		db:         db,
		workflows:  NewWorkflowRepository(db),
		executions: memory.NewExecutionRepository(),
		reminders:  memory.NewReminderRepository(),
		approvals:  memory.NewApprovalRepository(),
	}, nil
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

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}
