// Package redis provides a Redis-backed persistence implementation. Each
// entity set lives in one hash keyed by entity ID with JSON values. Updates
// are serialized per repository through in-process key locks; the engine's
// concurrency model is single-process, so this matches the atomicity the
// repositories promise.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

const (
	workflowsKey  = "collabot:workflows"
	executionsKey = "collabot:executions"
	remindersKey  = "collabot:reminders"
	approvalsKey  = "collabot:approvals"
)

type Persistence struct {
	client     goredis.UniversalClient
	workflows  *WorkflowRepository
	executions *ExecutionRepository
	reminders  *ReminderRepository
	approvals  *ApprovalRepository
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(ctx context.Context, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Persistence{
		client:     client,
		workflows:  &WorkflowRepository{client: client},
		executions: &ExecutionRepository{client: client},
		reminders:  &ReminderRepository{client: client},
		approvals:  &ApprovalRepository{client: client},
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
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

// hashGet loads and decodes one entity, mapping a missing field to notFound.
func hashGet[T any](ctx context.Context, client goredis.UniversalClient, key, id string, notFound error) (*T, error) {
	data, err := client.HGet(ctx, key, id).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, notFound
		}

		return nil, fmt.Errorf("failed to read %s/%s: %w", key, id, err)
	}

	var entity T
	if err := json.Unmarshal([]byte(data), &entity); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", key, id, err)
	}

	return &entity, nil
}

func hashSet(ctx context.Context, client goredis.UniversalClient, key, id string, entity any) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", key, id, err)
	}

	if err := client.HSet(ctx, key, id, data).Err(); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", key, id, err)
	}

	return nil
}

func hashAll[T any](ctx context.Context, client goredis.UniversalClient, key string) ([]*T, error) {
	all, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", key, err)
	}

	entities := make([]*T, 0, len(all))

	for id, data := range all {
		var entity T
		if err := json.Unmarshal([]byte(data), &entity); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", key, id, err)
		}

		entities = append(entities, &entity)
	}

	return entities, nil
}

// keyLocks serializes read-modify-write updates per entity ID.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *keyLocks) lock(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}

	return m
}

type WorkflowRepository struct {
	client goredis.UniversalClient
}

func (r *WorkflowRepository) Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	return hashAll[models.WorkflowDefinition](ctx, r.client, workflowsKey)
}

func (r *WorkflowRepository) WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return hashGet[models.WorkflowDefinition](ctx, r.client, workflowsKey, id, persistence.ErrWorkflowNotFound)
}

func (r *WorkflowRepository) EnabledByTriggerType(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowDefinition, error) {
	all, err := r.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.WorkflowDefinition, 0)

	for _, workflow := range all {
		if workflow.Enabled && workflow.TriggerType == triggerType {
			matching = append(matching, workflow)
		}
	}

	return matching, nil
}

func (r *WorkflowRepository) SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error {
	return hashSet(ctx, r.client, workflowsKey, workflow.ID, workflow)
}

func (r *WorkflowRepository) DeleteWorkflow(ctx context.Context, id string) error {
	removed, err := r.client.HDel(ctx, workflowsKey, id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if removed == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

type ExecutionRepository struct {
	client goredis.UniversalClient
	locks  keyLocks
}

func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *models.Execution) error {
	return hashSet(ctx, r.client, executionsKey, execution.ID, execution)
}

func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	return hashGet[models.Execution](ctx, r.client, executionsKey, id, persistence.ErrExecutionNotFound)
}

func (r *ExecutionRepository) UpdateExecution(ctx context.Context, id string, fn func(*models.Execution) error) (*models.Execution, error) {
	lock := r.locks.lock(id)
	lock.Lock()
	defer lock.Unlock()

	execution, err := r.ExecutionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(execution); err != nil {
		return nil, err
	}

	if err := r.SaveExecution(ctx, execution); err != nil {
		return nil, err
	}

	return execution, nil
}

type ReminderRepository struct {
	client goredis.UniversalClient
	locks  keyLocks
}

func (r *ReminderRepository) SaveReminder(ctx context.Context, reminder *models.Reminder) error {
	return hashSet(ctx, r.client, remindersKey, reminder.ID, reminder)
}

func (r *ReminderRepository) ReminderByID(ctx context.Context, id string) (*models.Reminder, error) {
	return hashGet[models.Reminder](ctx, r.client, remindersKey, id, persistence.ErrReminderNotFound)
}

func (r *ReminderRepository) RemindersByOwner(ctx context.Context, owner string) ([]*models.Reminder, error) {
	all, err := hashAll[models.Reminder](ctx, r.client, remindersKey)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.Reminder, 0)

	for _, reminder := range all {
		if reminder.Owner == owner {
			matching = append(matching, reminder)
		}
	}

	return matching, nil
}

func (r *ReminderRepository) DueReminders(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	all, err := hashAll[models.Reminder](ctx, r.client, remindersKey)
	if err != nil {
		return nil, err
	}

	due := make([]*models.Reminder, 0)

	for _, reminder := range all {
		if reminder.Due(now) {
			due = append(due, reminder)
		}
	}

	return due, nil
}

func (r *ReminderRepository) UpdateReminder(ctx context.Context, id string, fn func(*models.Reminder) error) (*models.Reminder, error) {
	lock := r.locks.lock(id)
	lock.Lock()
	defer lock.Unlock()

	reminder, err := r.ReminderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(reminder); err != nil {
		return nil, err
	}

	if err := r.SaveReminder(ctx, reminder); err != nil {
		return nil, err
	}

	return reminder, nil
}

type ApprovalRepository struct {
	client goredis.UniversalClient
	locks  keyLocks
}

func (r *ApprovalRepository) SaveApproval(ctx context.Context, request *models.ApprovalRequest) error {
	return hashSet(ctx, r.client, approvalsKey, request.ID, request)
}

func (r *ApprovalRepository) ApprovalByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return hashGet[models.ApprovalRequest](ctx, r.client, approvalsKey, id, persistence.ErrApprovalNotFound)
}

func (r *ApprovalRepository) PendingApprovalsForApprover(ctx context.Context, approverID string) ([]*models.ApprovalRequest, error) {
	all, err := hashAll[models.ApprovalRequest](ctx, r.client, approvalsKey)
	if err != nil {
		return nil, err
	}

	pending := make([]*models.ApprovalRequest, 0)

	for _, request := range all {
		if request.Status == models.ApprovalStatusPending && request.HasApprover(approverID) {
			pending = append(pending, request)
		}
	}

	return pending, nil
}

func (r *ApprovalRepository) UpdateApproval(ctx context.Context, id string, fn func(*models.ApprovalRequest) error) (*models.ApprovalRequest, error) {
	lock := r.locks.lock(id)
	lock.Lock()
	defer lock.Unlock()

	request, err := r.ApprovalByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(request); err != nil {
		return nil, err
	}

	if err := r.SaveApproval(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

// Supported reports whether the given database URL targets Redis.
func Supported(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "redis://") || strings.HasPrefix(databaseURL, "rediss://")
}
