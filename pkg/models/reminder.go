package models

import "time"

// Reminder is a one-shot, time-triggered delivery obligation. Triggered
// flips true at most once and is permanent; cancelling (Active=false) only
// prevents future firing.
type Reminder struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"       validate:"required"`
	ChannelID   string     `json:"channel_id"`
	Title       string     `json:"title"       validate:"required"`
	Description string     `json:"description"`
	RemindAt    time.Time  `json:"remind_at"   validate:"required"`
	CreatedAt   time.Time  `json:"created_at"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
	Active      bool       `json:"active"`
	Triggered   bool       `json:"triggered"`
}

// Due reports whether the reminder should fire on a scan at now.
func (r *Reminder) Due(now time.Time) bool {
	return r.Active && !r.Triggered && !r.RemindAt.After(now)
}
