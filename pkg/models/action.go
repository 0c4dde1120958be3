package models

import (
	"sort"
	"time"
)

// ActionType enumerates the action kinds the dispatcher knows how to route.
type ActionType string

const (
	ActionTypeSendMessage     ActionType = "SEND_MESSAGE"
	ActionTypeCreateTicket    ActionType = "CREATE_TICKET"
	ActionTypeNotifyUser      ActionType = "NOTIFY_USER"
	ActionTypeTriggerCICD     ActionType = "TRIGGER_CI_CD"
	ActionTypeUpdateStatus    ActionType = "UPDATE_STATUS"
	ActionTypeSetReminder     ActionType = "SET_REMINDER"
	ActionTypeRequestApproval ActionType = "REQUEST_APPROVAL"
)

// Action is a single typed step within a workflow. Once an execution has
// captured its workflow's action list the actions are immutable.
type Action struct {
	ID         string         `json:"id"`
	Type       ActionType     `json:"type"        validate:"required"`
	Config     map[string]any `json:"config"`
	Order      int            `json:"order"`
	RetryCount int            `json:"retry_count"`
	RetryDelay time.Duration  `json:"retry_delay"`
}

// SortActions returns a copy of actions ordered by their declared Order.
func SortActions(actions []Action) []Action {
	sorted := make([]Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	return sorted
}
