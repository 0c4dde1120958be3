// Package status implements the UPDATE_STATUS action.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/protocol"
)

func NewFactory(updater integration.StatusUpdater) *Factory {
	return &Factory{updater: updater}
}

type Factory struct {
	updater integration.StatusUpdater
}

func (*Factory) ID() string {
	return string(models.ActionTypeUpdateStatus)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "minLength": 1},
			"target": map[string]any{"type": "string"},
			"entity": map[string]any{"type": "string"},
			"note":   map[string]any{"type": "string"},
		},
		"required": []any{"status"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	statusValue, _ := config["status"].(string)
	if statusValue == "" {
		return nil, errors.New("update_status requires a status")
	}

	target, _ := config["target"].(string)
	entity, _ := config["entity"].(string)
	note, _ := config["note"].(string)

	return &Handler{
		updater: f.updater,
		update: integration.StatusUpdate{
			Target: target,
			Entity: entity,
			Status: statusValue,
			Note:   note,
		},
	}, nil
}

type Handler struct {
	updater integration.StatusUpdater
	update  integration.StatusUpdate
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "update_status")

	update := h.update
	if update.Entity == "" {
		update.Entity = executionCtx.WorkflowID
	}

	if err := h.updater.UpdateStatus(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	logger.InfoContext(ctx, "Updated status", "entity", update.Entity, "status", update.Status)

	return map[string]any{"entity": update.Entity, "status": update.Status}, nil
}
