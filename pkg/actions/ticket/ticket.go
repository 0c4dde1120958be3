// Package ticket implements the CREATE_TICKET action.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/protocol"
)

const defaultSystem = "JIRA"

// NewFactory takes the available ticket connectors keyed by system name,
// such as "JIRA" or "GITHUB".
func NewFactory(connectors map[string]integration.TicketConnector) *Factory {
	return &Factory{connectors: connectors}
}

type Factory struct {
	connectors map[string]integration.TicketConnector
}

func (*Factory) ID() string {
	return string(models.ActionTypeCreateTicket)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"system":      map[string]any{"type": "string", "enum": []any{"JIRA", "GITHUB"}},
			"title":       map[string]any{"type": "string", "minLength": 1},
			"project":     map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"priority":    map[string]any{"type": "string"},
			"assignee":    map[string]any{"type": "string"},
		},
		"required": []any{"title"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	title, _ := config["title"].(string)
	if title == "" {
		return nil, errors.New("create_ticket requires a title")
	}

	system, _ := config["system"].(string)
	if system == "" {
		system = defaultSystem
	}

	system = strings.ToUpper(system)

	connector, ok := f.connectors[system]
	if !ok {
		return nil, fmt.Errorf("no ticket connector configured for system %s", system)
	}

	description, _ := config["description"].(string)
	project, _ := config["project"].(string)
	priority, _ := config["priority"].(string)
	assignee, _ := config["assignee"].(string)

	return &Handler{
		connector: connector,
		request: integration.TicketRequest{
			System:      system,
			Project:     project,
			Title:       title,
			Description: description,
			Priority:    priority,
			Assignee:    assignee,
		},
	}, nil
}

type Handler struct {
	connector integration.TicketConnector
	request   integration.TicketRequest
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "create_ticket")

	request := h.request
	if request.Description == "" {
		request.Description, _ = executionCtx.EventData["content"].(string)
	}

	ref, err := h.connector.CreateTicket(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	logger.InfoContext(ctx, "Created ticket", "system", request.System, "ticket_key", ref.Key)

	return map[string]any{
		"ticket_key": ref.Key,
		"ticket_url": ref.URL,
		"system":     ref.System,
	}, nil
}
