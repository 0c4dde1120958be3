package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/persistence/file"
)

func sampleWorkflow(id string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:             id,
		Name:           "bug intake",
		TriggerType:    models.TriggerTypeMessage,
		TriggerPattern: "(?i)bug:",
		Enabled:        true,
		Actions: []models.Action{
			{
				ID:         "a-1",
				Type:       models.ActionTypeSendMessage,
				Order:      1,
				Config:     map[string]any{"message": "got it"},
				RetryCount: 1,
				RetryDelay: 5 * time.Second,
			},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestWorkflowRepository_SaveAndLoad(t *testing.T) {
	t.Parallel()

	repo := file.NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	saved := sampleWorkflow("wf-1")
	require.NoError(t, repo.SaveWorkflow(ctx, saved))

	loaded, err := repo.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, saved.Name, loaded.Name)
	assert.Equal(t, saved.TriggerPattern, loaded.TriggerPattern)
	require.Len(t, loaded.Actions, 1)
	assert.Equal(t, saved.Actions[0].RetryDelay, loaded.Actions[0].RetryDelay)
	assert.Equal(t, "got it", loaded.Actions[0].Config["message"])
}

func TestWorkflowRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := file.NewWorkflowRepository(t.TempDir())

	_, err := repo.WorkflowByID(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepository_ListAndFilter(t *testing.T) {
	t.Parallel()

	repo := file.NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	enabled := sampleWorkflow("wf-1")
	require.NoError(t, repo.SaveWorkflow(ctx, enabled))

	disabled := sampleWorkflow("wf-2")
	disabled.Enabled = false
	require.NoError(t, repo.SaveWorkflow(ctx, disabled))

	command := sampleWorkflow("wf-3")
	command.TriggerType = models.TriggerTypeCommand
	require.NoError(t, repo.SaveWorkflow(ctx, command))

	all, err := repo.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matching, err := repo.EnabledByTriggerType(ctx, models.TriggerTypeMessage)
	require.NoError(t, err)
	require.Len(t, matching, 1)
	assert.Equal(t, "wf-1", matching[0].ID)
}

func TestWorkflowRepository_ListEmptyDirectory(t *testing.T) {
	t.Parallel()

	repo := file.NewWorkflowRepository(t.TempDir())

	all, err := repo.Workflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	t.Parallel()

	repo := file.NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.SaveWorkflow(ctx, sampleWorkflow("wf-1")))
	require.NoError(t, repo.DeleteWorkflow(ctx, "wf-1"))

	_, err := repo.WorkflowByID(ctx, "wf-1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	assert.ErrorIs(t, repo.DeleteWorkflow(ctx, "wf-1"), persistence.ErrWorkflowNotFound)
}
