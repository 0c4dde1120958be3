package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agarg/collabot/pkg/actions/message"
	"github.com/agarg/collabot/pkg/actions/ticket"
	"github.com/agarg/collabot/pkg/engine"
	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence/memory"
	"github.com/agarg/collabot/pkg/protocol"
	"github.com/agarg/collabot/pkg/registry"
)

// recordingHandler counts executions and fails the first failures attempts.
type recordingHandler struct {
	calls    *atomic.Int32
	failures int
}

func (h *recordingHandler) Execute(_ context.Context, _ models.ExecutionContext, _ *slog.Logger) (map[string]any, error) {
	call := h.calls.Add(1)
	if int(call) <= h.failures {
		return nil, errors.New("transient failure")
	}

	return map[string]any{"ok": true}, nil
}

type recordingFactory struct {
	id       string
	calls    atomic.Int32
	failures int
}

func (f *recordingFactory) ID() string             { return f.id }
func (f *recordingFactory) Schema() map[string]any { return map[string]any{"type": "object"} }

func (f *recordingFactory) Create(_ map[string]any) (protocol.Handler, error) {
	return &recordingHandler{calls: &f.calls, failures: f.failures}, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)

	return nil
}

func newTestEngine(t *testing.T, factories ...protocol.HandlerFactory) (*engine.Engine, *memory.ExecutionRepository, context.CancelFunc) {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	for _, factory := range factories {
		reg.Register(factory)
	}

	executions := memory.NewExecutionRepository()
	eng := engine.NewEngine(slog.Default(), executions, reg, &capturingPublisher{}, 2)

	ctx, cancel := context.WithCancel(context.Background())

	go eng.Run(ctx)

	return eng, executions, cancel
}

func waitForTerminal(t *testing.T, eng *engine.Engine, executionID string) *models.Execution {
	t.Helper()

	var final *models.Execution

	require.Eventually(t, func() bool {
		execution, err := eng.Get(context.Background(), executionID)
		if err != nil {
			return false
		}

		if !execution.Status.IsTerminal() {
			return false
		}

		final = execution

		return true
	}, 5*time.Second, 10*time.Millisecond)

	return final
}

func TestEngine_Start_CompletesAllActions(t *testing.T) {
	t.Parallel()

	factory := &recordingFactory{id: string(models.ActionTypeSendMessage)}
	eng, _, cancel := newTestEngine(t, factory)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:   "wf-1",
		Name: "greeter",
		Actions: []models.Action{
			{ID: "a-2", Type: models.ActionTypeSendMessage, Order: 2},
			{ID: "a-1", Type: models.ActionTypeSendMessage, Order: 1},
		},
	}
	event := &models.Event{ID: "ev-1", Type: models.TriggerTypeMessage, Content: "hello"}

	executionID, err := eng.Start(context.Background(), workflow, event)
	require.NoError(t, err)

	final := waitForTerminal(t, eng, executionID)

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	// Snapshot is executed in Order, not declaration order.
	assert.Equal(t, []string{"a-1", "a-2"}, final.CompletedActions)
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)
	assert.Empty(t, final.FailedActions)
	assert.Equal(t, int32(2), factory.calls.Load())
}

func TestEngine_FailFast(t *testing.T) {
	t.Parallel()

	okFactory := &recordingFactory{id: string(models.ActionTypeSendMessage)}
	failFactory := &recordingFactory{id: string(models.ActionTypeTriggerCICD), failures: 10}
	eng, _, cancel := newTestEngine(t, okFactory, failFactory)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:   "wf-1",
		Name: "deploys",
		Actions: []models.Action{
			{ID: "a-1", Type: models.ActionTypeSendMessage, Order: 1},
			{ID: "a-2", Type: models.ActionTypeTriggerCICD, Order: 2},
			{ID: "a-3", Type: models.ActionTypeSendMessage, Order: 3},
		},
	}

	executionID, err := eng.Start(context.Background(), workflow, &models.Event{ID: "ev-1"})
	require.NoError(t, err)

	final := waitForTerminal(t, eng, executionID)

	assert.Equal(t, models.ExecutionStatusFailed, final.Status)
	assert.Equal(t, []string{"a-1"}, final.CompletedActions)
	assert.Contains(t, final.FailedActions, "a-2")
	assert.NotEmpty(t, final.Error)
	// The action after the failure never ran.
	assert.Equal(t, int32(1), okFactory.calls.Load())
}

func TestEngine_RetryOnceSucceeds(t *testing.T) {
	t.Parallel()

	flaky := &recordingFactory{id: string(models.ActionTypeNotifyUser), failures: 1}
	eng, _, cancel := newTestEngine(t, flaky)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:   "wf-1",
		Name: "pager",
		Actions: []models.Action{
			{ID: "a-1", Type: models.ActionTypeNotifyUser, Order: 1, RetryCount: 1, RetryDelay: time.Millisecond},
		},
	}

	executionID, err := eng.Start(context.Background(), workflow, &models.Event{ID: "ev-1"})
	require.NoError(t, err)

	final := waitForTerminal(t, eng, executionID)

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, []string{"a-1"}, final.CompletedActions)
	assert.Equal(t, int32(2), flaky.calls.Load())
}

func TestEngine_RetryOnceThenFail(t *testing.T) {
	t.Parallel()

	broken := &recordingFactory{id: string(models.ActionTypeNotifyUser), failures: 10}
	eng, _, cancel := newTestEngine(t, broken)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:   "wf-1",
		Name: "pager",
		Actions: []models.Action{
			{ID: "a-1", Type: models.ActionTypeNotifyUser, Order: 1, RetryCount: 1, RetryDelay: time.Millisecond},
		},
	}

	executionID, err := eng.Start(context.Background(), workflow, &models.Event{ID: "ev-1"})
	require.NoError(t, err)

	final := waitForTerminal(t, eng, executionID)

	assert.Equal(t, models.ExecutionStatusFailed, final.Status)
	// Exactly one retry, never more.
	assert.Equal(t, int32(2), broken.calls.Load())
}

func TestEngine_UnknownActionTypeSkipped(t *testing.T) {
	t.Parallel()

	known := &recordingFactory{id: string(models.ActionTypeSendMessage)}
	eng, _, cancel := newTestEngine(t, known)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:   "wf-1",
		Name: "mixed",
		Actions: []models.Action{
			{ID: "a-1", Type: "LAUNCH_ROCKETS", Order: 1},
			{ID: "a-2", Type: models.ActionTypeSendMessage, Order: 2},
		},
	}

	executionID, err := eng.Start(context.Background(), workflow, &models.Event{ID: "ev-1"})
	require.NoError(t, err)

	final := waitForTerminal(t, eng, executionID)

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, []string{"a-2"}, final.CompletedActions)
	assert.Empty(t, final.FailedActions)
}

func TestEngine_CancelIsMonotonic(t *testing.T) {
	t.Parallel()

	factory := &recordingFactory{id: string(models.ActionTypeSendMessage)}
	eng, _, cancel := newTestEngine(t, factory)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:      "wf-1",
		Name:    "oneshot",
		Actions: []models.Action{{ID: "a-1", Type: models.ActionTypeSendMessage, Order: 1}},
	}

	executionID, err := eng.Start(context.Background(), workflow, &models.Event{ID: "ev-1"})
	require.NoError(t, err)

	final := waitForTerminal(t, eng, executionID)
	require.Equal(t, models.ExecutionStatusCompleted, final.Status)

	// Cancelling a completed execution is a no-op.
	require.NoError(t, eng.Cancel(context.Background(), executionID))

	after, err := eng.Get(context.Background(), executionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, after.Status)
}

func TestEngine_CancelPendingExecution(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(slog.Default())
	executions := memory.NewExecutionRepository()
	// Pool never started, so the execution stays queued.
	eng := engine.NewEngine(slog.Default(), executions, reg, &capturingPublisher{}, 1)

	workflow := &models.WorkflowDefinition{
		ID:      "wf-1",
		Name:    "queued",
		Actions: []models.Action{{ID: "a-1", Type: models.ActionTypeSendMessage, Order: 1}},
	}

	executionID, err := eng.Start(context.Background(), workflow, &models.Event{ID: "ev-1"})
	require.NoError(t, err)

	require.NoError(t, eng.Cancel(context.Background(), executionID))

	cancelled, err := eng.Get(context.Background(), executionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CompletedAt)
}

// blockingHandler parks in Execute until the gate closes, signalling entry
// exactly once so tests can cancel while the action is in flight.
type blockingHandler struct {
	entered   chan struct{}
	enterOnce *sync.Once
	gate      chan struct{}
}

func (h *blockingHandler) Execute(_ context.Context, _ models.ExecutionContext, _ *slog.Logger) (map[string]any, error) {
	h.enterOnce.Do(func() { close(h.entered) })
	<-h.gate

	return map[string]any{"ok": true}, nil
}

type blockingFactory struct {
	id        string
	entered   chan struct{}
	enterOnce sync.Once
	gate      chan struct{}
}

func newBlockingFactory(id string) *blockingFactory {
	return &blockingFactory{
		id:      id,
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
}

func (f *blockingFactory) ID() string             { return f.id }
func (f *blockingFactory) Schema() map[string]any { return map[string]any{"type": "object"} }

func (f *blockingFactory) Create(_ map[string]any) (protocol.Handler, error) {
	return &blockingHandler{entered: f.entered, enterOnce: &f.enterOnce, gate: f.gate}, nil
}

func TestEngine_CancelDuringRunStopsRemainingActions(t *testing.T) {
	t.Parallel()

	blocking := newBlockingFactory(string(models.ActionTypeTriggerCICD))
	after := &recordingFactory{id: string(models.ActionTypeSendMessage)}
	eng, _, cancel := newTestEngine(t, blocking, after)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:   "wf-1",
		Name: "slow deploy",
		Actions: []models.Action{
			{ID: "a-1", Type: models.ActionTypeTriggerCICD, Order: 1},
			{ID: "a-2", Type: models.ActionTypeSendMessage, Order: 2},
		},
	}

	executionID, err := eng.Start(context.Background(), workflow, &models.Event{ID: "ev-1"})
	require.NoError(t, err)

	// Wait until the first action is in flight, then cancel.
	select {
	case <-blocking.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first action never started")
	}

	require.NoError(t, eng.Cancel(context.Background(), executionID))

	// The in-flight handler is never interrupted; it finishes after the
	// gate opens and only then does the worker observe the cancellation.
	close(blocking.gate)

	final := waitForTerminal(t, eng, executionID)

	assert.Equal(t, models.ExecutionStatusCancelled, final.Status)
	assert.Empty(t, final.CompletedActions)
	assert.Equal(t, int32(0), after.calls.Load())
}

// End-to-end through the real handlers: a bug report message creates a
// ticket and posts a confirmation.
func TestEngine_BugReportFlow(t *testing.T) {
	t.Parallel()

	notifier := integration.NewLogNotifier(slog.Default())
	connectors := map[string]integration.TicketConnector{
		"JIRA": integration.NewNullTicketConnector("JIRA"),
	}

	eng, _, cancel := newTestEngine(t,
		message.NewFactory(notifier),
		ticket.NewFactory(connectors),
	)
	defer cancel()

	workflow := &models.WorkflowDefinition{
		ID:             "wf-bugs",
		Name:           "bug intake",
		TriggerType:    models.TriggerTypeMessage,
		TriggerPattern: "(?i)bug:",
		Enabled:        true,
		Actions: []models.Action{
			{
				ID:    "create-ticket",
				Type:  models.ActionTypeCreateTicket,
				Order: 1,
				Config: map[string]any{
					"title":   "Bug report",
					"project": "OPS",
				},
			},
			{
				ID:    "confirm",
				Type:  models.ActionTypeSendMessage,
				Order: 2,
				Config: map[string]any{
					"message": "Tracked, thanks {{user_id}}",
				},
			},
		},
	}

	event := &models.Event{
		ID:        "ev-1",
		Type:      models.TriggerTypeMessage,
		Content:   "BUG: search is down",
		ChannelID: "ops-channel",
		UserID:    "dana",
	}

	executionID, err := eng.Start(context.Background(), workflow, event)
	require.NoError(t, err)

	final := waitForTerminal(t, eng, executionID)

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, []string{"create-ticket", "confirm"}, final.CompletedActions)
	assert.Equal(t, "dana", final.Context["user_id"])
}
