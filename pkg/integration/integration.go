// Package integration holds the outbound collaborators the action handlers
// and the reminder scanner deliver through: notifiers, ticket systems, CI/CD
// pipelines and status targets.
package integration

import (
	"context"
	"time"
)

// Notification is a message delivered to a user or channel.
type Notification struct {
	Recipient string    `json:"recipient"`
	ChannelID string    `json:"channel_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TicketRequest describes a ticket to create in an external tracker.
type TicketRequest struct {
	System      string
	Project     string
	Title       string
	Description string
	Priority    string
	Assignee    string
}

// TicketRef identifies a ticket created in an external tracker.
type TicketRef struct {
	Key    string
	URL    string
	System string
}

type TicketConnector interface {
	CreateTicket(ctx context.Context, request TicketRequest) (*TicketRef, error)
}

// PipelineRequest describes a CI/CD pipeline run to start.
type PipelineRequest struct {
	Pipeline    string
	Environment string
	Ref         string
	Parameters  map[string]string
}

// PipelineRef identifies a started pipeline run.
type PipelineRef struct {
	RunID string
	URL   string
}

type CICDConnector interface {
	TriggerPipeline(ctx context.Context, request PipelineRequest) (*PipelineRef, error)
}

// StatusUpdate sets the status of an external entity, such as an incident
// record or a team dashboard item.
type StatusUpdate struct {
	Target string
	Entity string
	Status string
	Note   string
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, update StatusUpdate) error
}
