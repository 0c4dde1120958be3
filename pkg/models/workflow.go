// Package models defines the core domain models for event-driven automation.
package models

import "time"

// TriggerType classifies the collaboration event a workflow reacts to.
type TriggerType string

const (
	TriggerTypeMessage  TriggerType = "MESSAGE"
	TriggerTypeMention  TriggerType = "MENTION"
	TriggerTypeCommand  TriggerType = "COMMAND"
	TriggerTypeSchedule TriggerType = "SCHEDULE"
	TriggerTypeWebhook  TriggerType = "WEBHOOK"
)

// ValidTriggerType reports whether t is one of the recognized trigger types.
func ValidTriggerType(t TriggerType) bool {
	switch t {
	case TriggerTypeMessage, TriggerTypeMention, TriggerTypeCommand, TriggerTypeSchedule, TriggerTypeWebhook:
		return true
	}

	return false
}

// WorkflowDefinition is a stored rule mapping a trigger to an ordered action
// list. Definitions are mutated only through the workflow service and are
// disabled rather than deleted by the engine.
type WorkflowDefinition struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"            validate:"required,min=3"`
	Description    string      `json:"description"`
	TriggerType    TriggerType `json:"trigger_type"    validate:"required"`
	TriggerPattern string      `json:"trigger_pattern"`
	Actions        []Action    `json:"actions"`
	Enabled        bool        `json:"enabled"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
