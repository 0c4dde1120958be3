// Package notify implements the NOTIFY_USER action.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/protocol"
)

const defaultNotificationType = "INFO"

func NewFactory(notifier integration.Notifier) *Factory {
	return &Factory{notifier: notifier}
}

type Factory struct {
	notifier integration.Notifier
}

func (*Factory) ID() string {
	return string(models.ActionTypeNotifyUser)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string", "minLength": 1},
			"message": map[string]any{"type": "string", "minLength": 1},
			"type":    map[string]any{"type": "string", "enum": []any{"INFO", "WARNING", "URGENT"}},
		},
		"required": []any{"user_id", "message"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	userID, _ := config["user_id"].(string)
	if userID == "" {
		return nil, errors.New("notify_user requires a user_id")
	}

	message, _ := config["message"].(string)
	if message == "" {
		return nil, errors.New("notify_user requires a message")
	}

	notificationType, _ := config["type"].(string)
	if notificationType == "" {
		notificationType = defaultNotificationType
	}

	return &Handler{
		notifier:         f.notifier,
		userID:           userID,
		message:          message,
		notificationType: strings.ToUpper(notificationType),
	}, nil
}

type Handler struct {
	notifier         integration.Notifier
	userID           string
	message          string
	notificationType string
}

func (h *Handler) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "notify_user")

	notification := integration.Notification{
		Recipient: h.userID,
		Type:      h.notificationType,
		Message:   h.message,
		SentAt:    time.Now().UTC(),
	}

	if err := h.notifier.Notify(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to notify user %s: %w", h.userID, err)
	}

	logger.InfoContext(ctx, "Notified user", "user_id", h.userID, "type", h.notificationType)

	return map[string]any{"user_id": h.userID, "type": h.notificationType}, nil
}
