// Package web provides the HTTP handlers and request types for the API.
package web

import (
	"time"

	"github.com/agarg/collabot/pkg/models"
)

// EmitEventRequest is the ingress payload for a collaboration event.
type EmitEventRequest struct {
	Type      string         `json:"type"       validate:"required"`
	Content   string         `json:"content"`
	ChannelID string         `json:"channel_id"`
	UserID    string         `json:"user_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ActionRequest describes one action inside a workflow payload. RetryDelay
// is given in seconds.
type ActionRequest struct {
	ID                string         `json:"id,omitempty"`
	Type              string         `json:"type"                validate:"required"`
	Config            map[string]any `json:"config"`
	Order             int            `json:"order"`
	RetryCount        int            `json:"retry_count"         validate:"min=0,max=1"`
	RetryDelaySeconds int            `json:"retry_delay_seconds" validate:"min=0"`
}

// WorkflowRequest is the body for creating or replacing a workflow.
type WorkflowRequest struct {
	Name           string          `json:"name"            validate:"required,min=3"`
	Description    string          `json:"description"`
	TriggerType    string          `json:"trigger_type"    validate:"required"`
	TriggerPattern string          `json:"trigger_pattern"`
	Actions        []ActionRequest `json:"actions"         validate:"required,min=1,dive"`
	Enabled        *bool           `json:"enabled,omitempty"`
}

// ToModel converts the request into a workflow definition. New workflows
// default to enabled.
func (r *WorkflowRequest) ToModel() *models.WorkflowDefinition {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}

	actions := make([]models.Action, 0, len(r.Actions))
	for _, action := range r.Actions {
		actions = append(actions, models.Action{
			ID:         action.ID,
			Type:       models.ActionType(action.Type),
			Config:     action.Config,
			Order:      action.Order,
			RetryCount: action.RetryCount,
			RetryDelay: time.Duration(action.RetryDelaySeconds) * time.Second,
		})
	}

	return &models.WorkflowDefinition{
		Name:           r.Name,
		Description:    r.Description,
		TriggerType:    models.TriggerType(r.TriggerType),
		TriggerPattern: r.TriggerPattern,
		Actions:        actions,
		Enabled:        enabled,
	}
}

// CreateReminderRequest schedules a reminder either at an absolute time or
// after a relative delay.
type CreateReminderRequest struct {
	Owner        string     `json:"owner"         validate:"required"`
	ChannelID    string     `json:"channel_id"`
	Title        string     `json:"title"         validate:"required"`
	Description  string     `json:"description"`
	RemindAt     *time.Time `json:"remind_at,omitempty"`
	DelaySeconds int        `json:"delay_seconds" validate:"min=0"`
}

// CreateApprovalRequest opens an approval request.
type CreateApprovalRequest struct {
	Requester   string   `json:"requester"    validate:"required"`
	ChannelID   string   `json:"channel_id"`
	Title       string   `json:"title"        validate:"required"`
	Description string   `json:"description"`
	ApproverIDs []string `json:"approver_ids" validate:"required,min=1"`
}

// VoteRequest records one approver's decision.
type VoteRequest struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Approved   *bool  `json:"approved"    validate:"required"`
	Comment    string `json:"comment"`
}
