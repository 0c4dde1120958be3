package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

// ExecutionRepository holds execution records behind a single mutex. The
// owning worker writes through UpdateExecution; status and cancel callers
// always observe a consistent snapshot.
type ExecutionRepository struct {
	mu         sync.RWMutex
	executions map[string]*models.Execution
}

func NewExecutionRepository() *ExecutionRepository {
	return &ExecutionRepository{
		executions: make(map[string]*models.Execution),
	}
}

func (r *ExecutionRepository) SaveExecution(_ context.Context, execution *models.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executions[execution.ID] = cloneExecution(execution)

	return nil
}

func (r *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	execution, ok := r.executions[id]
	if !ok {
		return nil, persistence.ErrExecutionNotFound
	}

	return cloneExecution(execution), nil
}

func (r *ExecutionRepository) UpdateExecution(_ context.Context, id string, fn func(*models.Execution) error) (*models.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution, ok := r.executions[id]
	if !ok {
		return nil, persistence.ErrExecutionNotFound
	}

	updated := cloneExecution(execution)
	if err := fn(updated); err != nil {
		return nil, err
	}

	r.executions[id] = updated

	return cloneExecution(updated), nil
}

func cloneExecution(execution *models.Execution) *models.Execution {
	clone := *execution
	clone.Actions = cloneActions(execution.Actions)
	clone.CompletedActions = slices.Clone(execution.CompletedActions)

	if execution.FailedActions != nil {
		clone.FailedActions = maps.Clone(execution.FailedActions)
	}

	if execution.Context != nil {
		clone.Context = maps.Clone(execution.Context)
	}

	return &clone
}
