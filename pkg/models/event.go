package models

import "time"

// Event is an incoming collaboration event submitted through the ingress
// API and fanned out to matching workflows.
type Event struct {
	ID        string         `json:"id"`
	Type      TriggerType    `json:"type"       validate:"required"`
	Content   string         `json:"content"`
	ChannelID string         `json:"channel_id"`
	UserID    string         `json:"user_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Data flattens the event into the map form captured as execution context.
func (e *Event) Data() map[string]any {
	data := map[string]any{
		"event_id":   e.ID,
		"event_type": string(e.Type),
		"content":    e.Content,
		"channel_id": e.ChannelID,
		"user_id":    e.UserID,
	}
	for k, v := range e.Payload {
		data[k] = v
	}

	return data
}
