// Package approve implements the REQUEST_APPROVAL action.
package approve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agarg/collabot/pkg/approval"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/protocol"
)

func NewFactory(service *approval.Service) *Factory {
	return &Factory{service: service}
}

type Factory struct {
	service *approval.Service
}

func (*Factory) ID() string {
	return string(models.ActionTypeRequestApproval)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"approvers": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
			},
			"title":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
		},
		"required": []any{"approvers"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	approversConfig, ok := config["approvers"].([]any)
	if !ok || len(approversConfig) == 0 {
		return nil, errors.New("request_approval requires at least one approver")
	}

	approvers := make([]string, 0, len(approversConfig))

	for _, entry := range approversConfig {
		approverID, ok := entry.(string)
		if !ok || approverID == "" {
			return nil, errors.New("request_approval approvers must be non-empty strings")
		}

		approvers = append(approvers, approverID)
	}

	title, _ := config["title"].(string)
	message, _ := config["message"].(string)

	return &Handler{
		service:   f.service,
		approvers: approvers,
		title:     title,
		message:   message,
	}, nil
}

type Handler struct {
	service   *approval.Service
	approvers []string
	title     string
	message   string
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "request_approval")

	requester, _ := executionCtx.EventData["user_id"].(string)
	if requester == "" {
		requester = executionCtx.WorkflowID
	}

	channelID, _ := executionCtx.EventData["channel_id"].(string)

	title := h.title
	if title == "" {
		title = "Approval requested by workflow " + executionCtx.WorkflowName
	}

	request, err := h.service.Create(ctx, requester, channelID, title, h.message, h.approvers)
	if err != nil {
		return nil, fmt.Errorf("failed to request approval: %w", err)
	}

	logger.InfoContext(ctx, "Requested approval",
		"approval_id", request.ID, "approvers", len(h.approvers))

	return map[string]any{
		"approval_id": request.ID,
		"status":      string(request.Status),
	}, nil
}
