// Package message implements the SEND_MESSAGE action.
package message

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

func NewFactory(notifier integration.Notifier) *Factory {
	return &Factory{notifier: notifier}
}

type Factory struct {
	notifier integration.Notifier
}

func (*Factory) ID() string {
	return string(models.ActionTypeSendMessage)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message":    map[string]any{"type": "string", "minLength": 1},
			"channel_id": map[string]any{"type": "string"},
		},
		"required": []any{"message"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	message, _ := config["message"].(string)
	if message == "" {
		return nil, errors.New("send_message requires a message")
	}

	channelID, _ := config["channel_id"].(string)

	return &Handler{notifier: f.notifier, message: message, channelID: channelID}, nil
}

type Handler struct {
	notifier  integration.Notifier
	message   string
	channelID string
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "send_message")

	channelID := h.channelID
	if channelID == "" {
		channelID, _ = executionCtx.EventData["channel_id"].(string)
	}

	rendered := renderTemplate(h.message, executionCtx.EventData)

	notification := integration.Notification{
		ChannelID: channelID,
		Type:      "MESSAGE",
		Message:   rendered,
		SentAt:    time.Now().UTC(),
	}

	if err := h.notifier.Notify(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	logger.InfoContext(ctx, "Sent message", "channel_id", channelID)

	return map[string]any{"channel_id": channelID, "message": rendered}, nil
}

// renderTemplate substitutes {{key}} placeholders with event data values.
func renderTemplate(template string, data map[string]any) string {
	rendered := template

	for key, value := range data {
		placeholder := "{{" + key + "}}"
		if strings.Contains(rendered, placeholder) {
			rendered = strings.ReplaceAll(rendered, placeholder, fmt.Sprintf("%v", value))
		}
	}

	return rendered
}
