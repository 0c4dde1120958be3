// Package protocol defines the contracts implemented by action handlers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/agarg/collabot/pkg/models"
)

// Handler executes one configured action within a workflow execution.
type Handler interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

// HandlerFactory creates handlers for one action type. Schema returns the
// JSON schema its configuration is validated against at registration time.
type HandlerFactory interface {
	ID() string
	Schema() map[string]any
	Create(config map[string]any) (Handler, error)
}
