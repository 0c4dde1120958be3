package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agarg/collabot/pkg/actions/message"
	"github.com/agarg/collabot/pkg/actions/notify"
	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/persistence/memory"
	"github.com/agarg/collabot/pkg/registry"
	"github.com/agarg/collabot/pkg/services"
)

func newTestWorkflowService(t *testing.T) *services.Workflow {
	t.Helper()

	notifier := integration.NewLogNotifier(slog.Default())

	reg := registry.NewRegistry(slog.Default())
	reg.Register(message.NewFactory(notifier))
	reg.Register(notify.NewFactory(notifier))

	return services.NewWorkflow(memory.NewPersistence(), reg)
}

func validWorkflow() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:           "bug intake",
		TriggerType:    models.TriggerTypeMessage,
		TriggerPattern: "(?i)bug:",
		Enabled:        true,
		Actions: []models.Action{
			{Type: models.ActionTypeSendMessage, Order: 1, Config: map[string]any{"message": "got it"}},
		},
	}
}

func TestWorkflow_Create(t *testing.T) {
	t.Parallel()

	service := newTestWorkflowService(t)

	created, err := service.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.NotEmpty(t, created.Actions[0].ID)

	fetched, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, fetched.Name)
}

func TestWorkflow_Create_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(workflow *models.WorkflowDefinition)
		expectedErr error
	}{
		{
			name:        "missing name",
			mutate:      func(w *models.WorkflowDefinition) { w.Name = "" },
			expectedErr: services.ErrWorkflowNameRequired,
		},
		{
			name:        "invalid trigger type",
			mutate:      func(w *models.WorkflowDefinition) { w.TriggerType = "TELEPATHY" },
			expectedErr: services.ErrInvalidTriggerType,
		},
		{
			name:        "message trigger without pattern",
			mutate:      func(w *models.WorkflowDefinition) { w.TriggerPattern = "" },
			expectedErr: services.ErrTriggerPatternRequired,
		},
		{
			name:        "no actions",
			mutate:      func(w *models.WorkflowDefinition) { w.Actions = nil },
			expectedErr: services.ErrActionsRequired,
		},
		{
			name: "unregistered action type",
			mutate: func(w *models.WorkflowDefinition) {
				w.Actions[0].Type = models.ActionTypeTriggerCICD
			},
			expectedErr: services.ErrUnknownActionType,
		},
		{
			name: "config fails schema validation",
			mutate: func(w *models.WorkflowDefinition) {
				w.Actions[0].Config = map[string]any{"message": ""}
			},
			expectedErr: services.ErrInvalidActionConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := newTestWorkflowService(t)

			workflow := validWorkflow()
			tt.mutate(workflow)

			_, err := service.Create(context.Background(), workflow)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.True(t, services.IsValidationError(err))
		})
	}
}

func TestWorkflow_Update(t *testing.T) {
	t.Parallel()

	service := newTestWorkflowService(t)

	created, err := service.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	replacement := validWorkflow()
	replacement.Name = "renamed intake"

	updated, err := service.Update(context.Background(), created.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "renamed intake", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = service.Update(context.Background(), "missing", validWorkflow())
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflow_SetEnabled(t *testing.T) {
	t.Parallel()

	service := newTestWorkflowService(t)

	created, err := service.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	disabled, err := service.SetEnabled(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	enabled, err := service.SetEnabled(context.Background(), created.ID, true)
	require.NoError(t, err)
	assert.True(t, enabled.Enabled)
}

func TestWorkflow_Delete(t *testing.T) {
	t.Parallel()

	service := newTestWorkflowService(t)

	created, err := service.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID))

	_, err = service.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	assert.ErrorIs(t, service.Delete(context.Background(), created.ID), persistence.ErrWorkflowNotFound)
}
