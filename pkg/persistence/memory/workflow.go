package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

// WorkflowRepository stores workflow definitions in a lock-protected map.
// Copies go in and out so callers never share memory with the store.
type WorkflowRepository struct {
	mu        sync.RWMutex
	workflows map[string]*models.WorkflowDefinition
}

func NewWorkflowRepository() *WorkflowRepository {
	return &WorkflowRepository{
		workflows: make(map[string]*models.WorkflowDefinition),
	}
}

func (r *WorkflowRepository) Workflows(_ context.Context) ([]*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.WorkflowDefinition, 0, len(r.workflows))
	for _, workflow := range r.workflows {
		result = append(result, cloneWorkflow(workflow))
	}

	return result, nil
}

func (r *WorkflowRepository) WorkflowByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, ok := r.workflows[id]
	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	return cloneWorkflow(workflow), nil
}

func (r *WorkflowRepository) EnabledByTriggerType(_ context.Context, triggerType models.TriggerType) ([]*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.WorkflowDefinition, 0)

	for _, workflow := range r.workflows {
		if workflow.Enabled && workflow.TriggerType == triggerType {
			result = append(result, cloneWorkflow(workflow))
		}
	}

	return result, nil
}

func (r *WorkflowRepository) SaveWorkflow(_ context.Context, workflow *models.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.workflows[workflow.ID] = cloneWorkflow(workflow)

	return nil
}

func (r *WorkflowRepository) DeleteWorkflow(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workflows[id]; !ok {
		return persistence.ErrWorkflowNotFound
	}

	delete(r.workflows, id)

	return nil
}

func cloneWorkflow(workflow *models.WorkflowDefinition) *models.WorkflowDefinition {
	clone := *workflow
	clone.Actions = cloneActions(workflow.Actions)

	return &clone
}

func cloneActions(actions []models.Action) []models.Action {
	cloned := make([]models.Action, len(actions))

	for i, action := range actions {
		cloned[i] = action
		if action.Config != nil {
			cloned[i].Config = maps.Clone(action.Config)
		}
	}

	return cloned
}
