// Package events defines the event types exchanged between the API ingress,
// the matcher and the execution engine.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/agarg/collabot/pkg/models"
)

type EventType string

const Topic = "collabot.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Ingress.
	EventReceivedEvent EventType = "event.received"

	// Execution lifecycle.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionCancelledEvent EventType = "execution.cancelled"

	// Reminder and approval notifications.
	ReminderTriggeredEvent EventType = "reminder.triggered"
	ApprovalResolvedEvent  EventType = "approval.resolved"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}

// EventReceived carries a collaboration event from the API ingress to the
// worker that runs trigger matching.
type EventReceived struct {
	BaseEvent

	Event models.Event `json:"event"`
}

func (e EventReceived) GetType() EventType {
	return EventReceivedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID      string `json:"execution_id"`
	WorkflowID       string `json:"workflow_id"`
	ActionsCompleted int    `json:"actions_completed"`
	DurationMs       int64  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	ActionID    string `json:"action_id"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionCancelled struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	CancelledBy string `json:"cancelled_by,omitempty"`
}

func (e ExecutionCancelled) GetType() EventType {
	return ExecutionCancelledEvent
}

type ReminderTriggered struct {
	BaseEvent

	ReminderID string    `json:"reminder_id"`
	Owner      string    `json:"owner"`
	ChannelID  string    `json:"channel_id,omitempty"`
	Title      string    `json:"title"`
	RemindAt   time.Time `json:"remind_at"`
}

func (e ReminderTriggered) GetType() EventType {
	return ReminderTriggeredEvent
}

type ApprovalResolved struct {
	BaseEvent

	ApprovalID string                `json:"approval_id"`
	Status     models.ApprovalStatus `json:"status"`
	ResolvedBy string                `json:"resolved_by"`
}

func (e ApprovalResolved) GetType() EventType {
	return ApprovalResolvedEvent
}
