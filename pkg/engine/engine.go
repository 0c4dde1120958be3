// Package engine runs workflow executions on a bounded worker pool.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/events"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/protocol"
	"github.com/agarg/collabot/pkg/registry"
)

const DefaultWorkerCount = 4

// backlogPerWorker sizes the task queue. Submission blocks once the backlog
// fills, which bounds memory under event bursts.
const backlogPerWorker = 16

type task struct {
	executionID string
}

type Engine struct {
	logger     *slog.Logger
	executions persistence.ExecutionRepository
	registry   *registry.Registry
	publisher  eventbus.EventPublisher
	queue      chan task
	workers    int
	wg         sync.WaitGroup
	startOnce  sync.Once
}

func NewEngine(
	logger *slog.Logger,
	executions persistence.ExecutionRepository,
	reg *registry.Registry,
	publisher eventbus.EventPublisher,
	workers int,
) *Engine {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}

	return &Engine{
		logger:     logger.With("module", "engine"),
		executions: executions,
		registry:   reg,
		publisher:  publisher,
		queue:      make(chan task, workers*backlogPerWorker),
		workers:    workers,
	}
}

// Run starts the worker pool. Workers drain the queue until ctx is
// cancelled; Run returns once all of them have exited.
func (e *Engine) Run(ctx context.Context) {
	e.startOnce.Do(func() {
		for i := 0; i < e.workers; i++ {
			e.wg.Add(1)

			go e.worker(ctx, i)
		}
	})

	e.wg.Wait()
}

func (e *Engine) worker(ctx context.Context, id int) {
	defer e.wg.Done()

	logger := e.logger.With("worker", id)
	logger.InfoContext(ctx, "Execution worker started")

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Execution worker stopped")

			return
		case t := <-e.queue:
			e.runExecution(ctx, t.executionID)
		}
	}
}

// Start creates an execution for the workflow and submits it to the pool.
// The action list is snapshotted in sorted order, so later workflow edits do
// not affect in-flight executions. Start blocks only if the backlog is full.
func (e *Engine) Start(ctx context.Context, workflow *models.WorkflowDefinition, event *models.Event) (string, error) {
	execution := &models.Execution{
		ID:               uuid.New().String(),
		WorkflowID:       workflow.ID,
		WorkflowName:     workflow.Name,
		Actions:          models.SortActions(workflow.Actions),
		Context:          event.Data(),
		Status:           models.ExecutionStatusPending,
		CreatedAt:        time.Now().UTC(),
		CompletedActions: make([]string, 0),
		FailedActions:    make(map[string]string),
	}

	if err := e.executions.SaveExecution(ctx, execution); err != nil {
		return "", fmt.Errorf("failed to save execution: %w", err)
	}

	select {
	case e.queue <- task{executionID: execution.ID}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	e.logger.InfoContext(ctx, "Queued execution",
		"execution_id", execution.ID, "workflow_id", workflow.ID)

	return execution.ID, nil
}

// Get returns a snapshot of the execution.
func (e *Engine) Get(ctx context.Context, id string) (*models.Execution, error) {
	return e.executions.ExecutionByID(ctx, id)
}

// Cancel marks the execution cancelled unless it already reached a terminal
// status. Cancellation is cooperative: a running worker observes it before
// its next action, never mid-handler.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	cancelled := false

	execution, err := e.executions.UpdateExecution(ctx, id, func(execution *models.Execution) error {
		if execution.Status.IsTerminal() {
			return nil
		}

		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusCancelled
		execution.CompletedAt = &now
		cancelled = true

		return nil
	})
	if err != nil {
		return err
	}

	if cancelled {
		e.publish(ctx, execution.ID, events.ExecutionCancelled{
			BaseEvent:   events.NewBaseEvent(events.ExecutionCancelledEvent),
			ExecutionID: execution.ID,
			WorkflowID:  execution.WorkflowID,
		})

		e.logger.InfoContext(ctx, "Cancelled execution", "execution_id", id)
	}

	return nil
}

func (e *Engine) runExecution(ctx context.Context, executionID string) {
	tracer := otel.Tracer("collabot/engine")

	ctx, span := tracer.Start(ctx, "engine.run_execution")
	defer span.End()

	span.SetAttributes(attribute.String("collabot.execution.id", executionID))

	started := time.Now()

	execution, err := e.transitionRunning(ctx, executionID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to start execution",
			"execution_id", executionID, "error", err)

		return
	}

	if execution == nil {
		// Cancelled before a worker picked it up.
		return
	}

	logger := e.logger.With("execution_id", execution.ID, "workflow_id", execution.WorkflowID)
	logger.InfoContext(ctx, "Execution started", "actions", len(execution.Actions))

	e.publish(ctx, execution.ID, events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent),
		ExecutionID:  execution.ID,
		WorkflowID:   execution.WorkflowID,
		WorkflowName: execution.WorkflowName,
	})

	executionCtx := models.ExecutionContext{
		ExecutionID:  execution.ID,
		WorkflowID:   execution.WorkflowID,
		WorkflowName: execution.WorkflowName,
		EventData:    execution.Context,
	}

	for _, action := range execution.Actions {
		// The only cancellation checkpoint: between actions.
		current, err := e.executions.ExecutionByID(ctx, execution.ID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to reload execution", "error", err)

			return
		}

		if current.Status == models.ExecutionStatusCancelled {
			logger.InfoContext(ctx, "Execution cancelled, stopping")

			return
		}

		handler, err := e.registry.CreateHandler(action.Type, action.Config)
		if err != nil {
			if registry.IsHandlerNotRegistered(err) {
				logger.WarnContext(ctx, "Skipping unknown action type",
					"action_id", action.ID, "action_type", action.Type)

				continue
			}

			e.fail(ctx, execution, action, err, started)

			return
		}

		if _, err := e.executeWithRetry(ctx, handler, action, executionCtx, logger); err != nil {
			e.fail(ctx, execution, action, err, started)

			return
		}

		if _, err := e.executions.UpdateExecution(ctx, execution.ID, func(execution *models.Execution) error {
			if execution.Status.IsTerminal() {
				return nil
			}

			execution.CompletedActions = append(execution.CompletedActions, action.ID)

			return nil
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to record completed action",
				"action_id", action.ID, "error", err)
		}
	}

	e.complete(ctx, execution, started)
}

// transitionRunning flips PENDING to RUNNING. Returns nil when the execution
// was already terminal.
func (e *Engine) transitionRunning(ctx context.Context, executionID string) (*models.Execution, error) {
	transitioned := false

	execution, err := e.executions.UpdateExecution(ctx, executionID, func(execution *models.Execution) error {
		if execution.Status.IsTerminal() {
			return nil
		}

		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusRunning
		execution.StartedAt = &now
		transitioned = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		return nil, nil
	}

	return execution, nil
}

// executeWithRetry runs the handler and retries exactly once when the action
// allows it.
func (e *Engine) executeWithRetry(
	ctx context.Context,
	handler protocol.Handler,
	action models.Action,
	executionCtx models.ExecutionContext,
	logger *slog.Logger,
) (map[string]any, error) {
	result, err := handler.Execute(ctx, executionCtx, logger)
	if err == nil {
		return result, nil
	}

	if action.RetryCount <= 0 {
		return nil, err
	}

	logger.WarnContext(ctx, "Action failed, retrying once",
		"action_id", action.ID, "retry_delay", action.RetryDelay, "error", err)

	if action.RetryDelay > 0 {
		select {
		case <-time.After(action.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return handler.Execute(ctx, executionCtx, logger)
}

func (e *Engine) fail(ctx context.Context, execution *models.Execution, action models.Action, actionErr error, started time.Time) {
	failed := false

	updated, err := e.executions.UpdateExecution(ctx, execution.ID, func(execution *models.Execution) error {
		if execution.Status.IsTerminal() {
			return nil
		}

		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusFailed
		execution.CompletedAt = &now
		execution.FailedActions[action.ID] = actionErr.Error()
		execution.Error = fmt.Sprintf("action %s failed: %v", action.ID, actionErr)
		failed = true

		return nil
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to record execution failure",
			"execution_id", execution.ID, "error", err)

		return
	}

	if !failed {
		return
	}

	e.logger.ErrorContext(ctx, "Execution failed",
		"execution_id", execution.ID, "action_id", action.ID, "error", actionErr)

	e.publish(ctx, execution.ID, events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		ActionID:    action.ID,
		Error:       updated.Error,
		DurationMs:  time.Since(started).Milliseconds(),
	})
}

func (e *Engine) complete(ctx context.Context, execution *models.Execution, started time.Time) {
	completed := false

	updated, err := e.executions.UpdateExecution(ctx, execution.ID, func(execution *models.Execution) error {
		if execution.Status.IsTerminal() {
			return nil
		}

		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusCompleted
		execution.CompletedAt = &now
		completed = true

		return nil
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to record execution completion",
			"execution_id", execution.ID, "error", err)

		return
	}

	if !completed {
		return
	}

	e.logger.InfoContext(ctx, "Execution completed",
		"execution_id", execution.ID, "actions_completed", len(updated.CompletedActions))

	e.publish(ctx, execution.ID, events.ExecutionCompleted{
		BaseEvent:        events.NewBaseEvent(events.ExecutionCompletedEvent),
		ExecutionID:      execution.ID,
		WorkflowID:       execution.WorkflowID,
		ActionsCompleted: len(updated.CompletedActions),
		DurationMs:       time.Since(started).Milliseconds(),
	})
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish lifecycle event",
			"event_type", event.GetType(), "error", err)
	}
}
