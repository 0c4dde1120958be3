package ticket_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agarg/collabot/pkg/actions/ticket"
	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
)

func newFactory() *ticket.Factory {
	return ticket.NewFactory(map[string]integration.TicketConnector{
		"JIRA":   integration.NewNullTicketConnector("JIRA"),
		"GITHUB": integration.NewNullTicketConnector("GITHUB"),
	})
}

func TestFactory_Create(t *testing.T) {
	t.Parallel()

	factory := newFactory()

	_, err := factory.Create(map[string]any{"title": "Broken search"})
	require.NoError(t, err)

	// System name is case-insensitive.
	_, err = factory.Create(map[string]any{"title": "Broken search", "system": "github"})
	require.NoError(t, err)

	_, err = factory.Create(map[string]any{})
	assert.Error(t, err)

	_, err = factory.Create(map[string]any{"title": "x", "system": "BUGZILLA"})
	assert.Error(t, err)
}

func TestHandler_Execute_DefaultsToJira(t *testing.T) {
	t.Parallel()

	factory := newFactory()

	handler, err := factory.Create(map[string]any{
		"title":   "Broken search",
		"project": "OPS",
	})
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "JIRA", output["system"])
	assert.Equal(t, "OPS-1", output["ticket_key"])
}

func TestHandler_Execute_DescriptionFallsBackToEventContent(t *testing.T) {
	t.Parallel()

	connector := integration.NewNullTicketConnector("JIRA")
	factory := ticket.NewFactory(map[string]integration.TicketConnector{"JIRA": connector})

	handler, err := factory.Create(map[string]any{"title": "Broken search"})
	require.NoError(t, err)

	executionCtx := models.ExecutionContext{
		EventData: map[string]any{"content": "BUG: search is down"},
	}

	_, err = handler.Execute(context.Background(), executionCtx, slog.Default())
	require.NoError(t, err)
}
