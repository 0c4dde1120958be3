package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/persistence/memory"
)

func TestWorkflowRepository_CRUD(t *testing.T) {
	t.Parallel()

	repo := memory.NewWorkflowRepository()
	ctx := context.Background()

	_, err := repo.WorkflowByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	workflow := &models.WorkflowDefinition{
		ID:          "wf-1",
		Name:        "intake",
		TriggerType: models.TriggerTypeMessage,
		Enabled:     true,
		Actions: []models.Action{
			{ID: "a-1", Type: models.ActionTypeSendMessage, Config: map[string]any{"message": "hi"}},
		},
	}
	require.NoError(t, repo.SaveWorkflow(ctx, workflow))

	fetched, err := repo.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "intake", fetched.Name)

	all, err := repo.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteWorkflow(ctx, "wf-1"))
	assert.ErrorIs(t, repo.DeleteWorkflow(ctx, "wf-1"), persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepository_CopiesIsolateCallers(t *testing.T) {
	t.Parallel()

	repo := memory.NewWorkflowRepository()
	ctx := context.Background()

	workflow := &models.WorkflowDefinition{
		ID:      "wf-1",
		Name:    "intake",
		Actions: []models.Action{{ID: "a-1", Config: map[string]any{"message": "hi"}}},
	}
	require.NoError(t, repo.SaveWorkflow(ctx, workflow))

	// Mutating the saved value must not reach the store.
	workflow.Name = "mutated"
	workflow.Actions[0].Config["message"] = "mutated"

	fetched, err := repo.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "intake", fetched.Name)
	assert.Equal(t, "hi", fetched.Actions[0].Config["message"])

	// Same for values read back out.
	fetched.Actions[0].Config["message"] = "scribbled"

	again, err := repo.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Actions[0].Config["message"])
}

func TestWorkflowRepository_EnabledByTriggerType(t *testing.T) {
	t.Parallel()

	repo := memory.NewWorkflowRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveWorkflow(ctx, &models.WorkflowDefinition{
		ID: "wf-1", TriggerType: models.TriggerTypeMessage, Enabled: true,
	}))
	require.NoError(t, repo.SaveWorkflow(ctx, &models.WorkflowDefinition{
		ID: "wf-2", TriggerType: models.TriggerTypeMessage, Enabled: false,
	}))
	require.NoError(t, repo.SaveWorkflow(ctx, &models.WorkflowDefinition{
		ID: "wf-3", TriggerType: models.TriggerTypeCommand, Enabled: true,
	}))

	matching, err := repo.EnabledByTriggerType(ctx, models.TriggerTypeMessage)
	require.NoError(t, err)
	require.Len(t, matching, 1)
	assert.Equal(t, "wf-1", matching[0].ID)
}

func TestExecutionRepository_UpdateIsAtomic(t *testing.T) {
	t.Parallel()

	repo := memory.NewExecutionRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveExecution(ctx, &models.Execution{
		ID:     "ex-1",
		Status: models.ExecutionStatusPending,
	}))

	updated, err := repo.UpdateExecution(ctx, "ex-1", func(execution *models.Execution) error {
		execution.Status = models.ExecutionStatusRunning
		execution.CompletedActions = append(execution.CompletedActions, "a-1")

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, updated.Status)

	// A failing fn leaves the stored record untouched.
	_, err = repo.UpdateExecution(ctx, "ex-1", func(execution *models.Execution) error {
		execution.Status = models.ExecutionStatusFailed

		return errors.New("refused")
	})
	require.Error(t, err)

	current, err := repo.ExecutionByID(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, current.Status)
	assert.Equal(t, []string{"a-1"}, current.CompletedActions)

	_, err = repo.UpdateExecution(ctx, "missing", func(*models.Execution) error { return nil })
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestReminderRepository_DueReminders(t *testing.T) {
	t.Parallel()

	repo := memory.NewReminderRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	save := func(id string, remindAt time.Time, active, triggered bool) {
		require.NoError(t, repo.SaveReminder(ctx, &models.Reminder{
			ID:        id,
			Owner:     "dana",
			Title:     id,
			RemindAt:  remindAt,
			Active:    active,
			Triggered: triggered,
		}))
	}

	save("due", now.Add(-time.Minute), true, false)
	save("future", now.Add(time.Hour), true, false)
	save("cancelled", now.Add(-time.Minute), false, false)
	save("already-fired", now.Add(-time.Minute), true, true)

	due, err := repo.DueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].ID)

	owned, err := repo.RemindersByOwner(ctx, "dana")
	require.NoError(t, err)
	assert.Len(t, owned, 4)
}

func TestApprovalRepository_PendingForApprover(t *testing.T) {
	t.Parallel()

	repo := memory.NewApprovalRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveApproval(ctx, &models.ApprovalRequest{
		ID:          "ap-1",
		ApproverIDs: []string{"alice", "bob"},
		Status:      models.ApprovalStatusPending,
	}))
	require.NoError(t, repo.SaveApproval(ctx, &models.ApprovalRequest{
		ID:          "ap-2",
		ApproverIDs: []string{"alice"},
		Status:      models.ApprovalStatusApproved,
	}))

	pending, err := repo.PendingApprovalsForApprover(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ap-1", pending[0].ID)

	_, err = repo.ApprovalByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrApprovalNotFound)
}
