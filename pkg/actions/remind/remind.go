// Package remind implements the SET_REMINDER action.
package remind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/protocol"
	"github.com/agarg/collabot/pkg/reminder"
)

const defaultDelaySeconds = 3600

func NewFactory(service *reminder.Service) *Factory {
	return &Factory{service: service}
}

type Factory struct {
	service *reminder.Service
}

func (*Factory) ID() string {
	return string(models.ActionTypeSetReminder)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":         map[string]any{"type": "string", "minLength": 1},
			"text":          map[string]any{"type": "string"},
			"delay_seconds": map[string]any{"type": "number", "minimum": 1},
			"channel_id":    map[string]any{"type": "string"},
		},
		"required": []any{"title"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	title, _ := config["title"].(string)
	if title == "" {
		return nil, errors.New("set_reminder requires a title")
	}

	delaySeconds := defaultDelaySeconds
	if delay, ok := config["delay_seconds"].(float64); ok {
		delaySeconds = int(delay)
	}

	text, _ := config["text"].(string)
	channelID, _ := config["channel_id"].(string)

	return &Handler{
		service:   f.service,
		title:     title,
		text:      text,
		channelID: channelID,
		delay:     time.Duration(delaySeconds) * time.Second,
	}, nil
}

type Handler struct {
	service   *reminder.Service
	title     string
	text      string
	channelID string
	delay     time.Duration
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "set_reminder")

	owner, _ := executionCtx.EventData["user_id"].(string)
	if owner == "" {
		owner = executionCtx.WorkflowID
	}

	channelID := h.channelID
	if channelID == "" {
		channelID, _ = executionCtx.EventData["channel_id"].(string)
	}

	remindAt := time.Now().UTC().Add(h.delay)

	created, err := h.service.Create(ctx, owner, channelID, h.title, h.text, remindAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set reminder: %w", err)
	}

	logger.InfoContext(ctx, "Set reminder",
		"reminder_id", created.ID, "owner", owner, "remind_at", remindAt)

	return map[string]any{
		"reminder_id": created.ID,
		"owner":       owner,
		"remind_at":   remindAt.Format(time.RFC3339),
	}, nil
}
