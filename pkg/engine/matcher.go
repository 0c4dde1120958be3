package engine

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

// Matcher decides which enabled workflows an incoming event triggers.
type Matcher struct {
	logger    *slog.Logger
	workflows persistence.WorkflowRepository
	botName   string
}

func NewMatcher(logger *slog.Logger, workflows persistence.WorkflowRepository, botName string) *Matcher {
	return &Matcher{
		logger:    logger.With("module", "matcher"),
		workflows: workflows,
		botName:   botName,
	}
}

// Match returns every enabled workflow of the event's trigger type whose
// pattern matches. All matches fire; there is no priority between them.
func (m *Matcher) Match(ctx context.Context, event *models.Event) ([]*models.WorkflowDefinition, error) {
	candidates, err := m.workflows.EnabledByTriggerType(ctx, event.Type)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.WorkflowDefinition, 0)

	for _, workflow := range candidates {
		if m.matches(workflow, event) {
			matched = append(matched, workflow)
		}
	}

	m.logger.DebugContext(ctx, "Matched workflows",
		"event_id", event.ID, "event_type", event.Type,
		"candidates", len(candidates), "matched", len(matched))

	return matched, nil
}

func (m *Matcher) matches(workflow *models.WorkflowDefinition, event *models.Event) bool {
	switch workflow.TriggerType {
	case models.TriggerTypeMessage:
		return matchesPattern(event.Content, workflow.TriggerPattern)
	case models.TriggerTypeMention:
		// A mention trigger fires on the literal bot handle alone, whatever
		// the configured pattern says. Handles are exact: no case folding.
		return strings.Contains(event.Content, "@"+m.botName)
	case models.TriggerTypeCommand, models.TriggerTypeSchedule, models.TriggerTypeWebhook:
		if workflow.TriggerPattern == "" {
			return true
		}

		return matchesPattern(event.Content, workflow.TriggerPattern)
	default:
		return false
	}
}

// matchesPattern treats the pattern as a case-insensitive regular expression.
// A pattern that does not compile degrades to a case-insensitive substring
// check instead of disabling the workflow.
func matchesPattern(content, pattern string) bool {
	if pattern == "" {
		return false
	}

	compiled, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return strings.Contains(strings.ToLower(content), strings.ToLower(pattern))
	}

	return compiled.FindStringIndex(content) != nil
}
