package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/registry"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow manages workflow definitions. All writes go through here so that
// every stored definition passed validation, including per-action config
// schemas.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry) *Workflow {
	return &Workflow{
		persistence: persistence,
		registry:    registry,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (w *Workflow) List(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	return w.persistence.WorkflowRepository().Workflows(ctx)
}

func (w *Workflow) Get(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return w.persistence.WorkflowRepository().WorkflowByID(ctx, id)
}

// Create validates and stores a new workflow. New workflows default to
// enabled unless the definition says otherwise.
func (w *Workflow) Create(ctx context.Context, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if err := w.validate(workflow); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := w.persistence.WorkflowRepository().SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces an existing workflow definition, revalidating it.
func (w *Workflow) Update(ctx context.Context, id string, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	existing, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := w.validate(workflow); err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return workflow, nil
}

func (w *Workflow) Delete(ctx context.Context, id string) error {
	return w.persistence.WorkflowRepository().DeleteWorkflow(ctx, id)
}

// SetEnabled toggles the workflow without touching the rest of the
// definition.
func (w *Workflow) SetEnabled(ctx context.Context, id string, enabled bool) (*models.WorkflowDefinition, error) {
	workflow, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.Enabled = enabled
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return workflow, nil
}

func (w *Workflow) validate(workflow *models.WorkflowDefinition) error {
	if workflow == nil {
		return ErrWorkflowNil
	}

	if workflow.Name == "" {
		return ErrWorkflowNameRequired
	}

	if !models.ValidTriggerType(workflow.TriggerType) {
		return fmt.Errorf("%w: %s", ErrInvalidTriggerType, workflow.TriggerType)
	}

	if workflow.TriggerType == models.TriggerTypeMessage && workflow.TriggerPattern == "" {
		return ErrTriggerPatternRequired
	}

	if len(workflow.Actions) == 0 {
		return ErrActionsRequired
	}

	for i := range workflow.Actions {
		action := &workflow.Actions[i]

		if action.ID == "" {
			action.ID = uuid.New().String()
		}

		if !w.registry.Registered(action.Type) {
			return fmt.Errorf("%w: %s", ErrUnknownActionType, action.Type)
		}

		if err := w.registry.ValidateConfig(action.Type, action.Config); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidActionConfig, err)
		}
	}

	return nil
}
