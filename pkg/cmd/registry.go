package cmd

import (
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agarg/collabot/pkg/actions/approve"
	"github.com/agarg/collabot/pkg/actions/cicd"
	"github.com/agarg/collabot/pkg/actions/message"
	"github.com/agarg/collabot/pkg/actions/notify"
	"github.com/agarg/collabot/pkg/actions/remind"
	statusaction "github.com/agarg/collabot/pkg/actions/status"
	"github.com/agarg/collabot/pkg/actions/ticket"
	"github.com/agarg/collabot/pkg/approval"
	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/registry"
	"github.com/agarg/collabot/pkg/reminder"
)

// Integrations bundles the outbound collaborators shared by the action
// handlers.
type Integrations struct {
	Notifier         integration.Notifier
	TicketConnectors map[string]integration.TicketConnector
	CICD             integration.CICDConnector
	Status           integration.StatusUpdater
}

// NewIntegrations wires the collaborators from the environment. Anything not
// configured falls back to a local implementation so development setups work
// without external systems.
func NewIntegrations(logger *slog.Logger) *Integrations {
	integrations := &Integrations{
		Notifier: integration.NewLogNotifier(logger),
		TicketConnectors: map[string]integration.TicketConnector{
			"JIRA":   integration.NewNullTicketConnector("JIRA"),
			"GITHUB": integration.NewNullTicketConnector("GITHUB"),
		},
		CICD:   integration.NullCICDConnector{},
		Status: integration.NewLogStatusUpdater(logger),
	}

	if notifierURL := os.Getenv("NOTIFIER_REDIS_URL"); notifierURL != "" {
		opts, err := goredis.ParseURL(notifierURL)
		if err != nil {
			panic(err)
		}

		integrations.Notifier = integration.NewRedisNotifier(goredis.NewClient(opts))
	}

	if jiraURL := os.Getenv("JIRA_BASE_URL"); jiraURL != "" {
		integrations.TicketConnectors["JIRA"] = integration.NewJiraConnector(jiraURL, os.Getenv("JIRA_TOKEN"))
	}

	if githubToken := os.Getenv("GITHUB_TOKEN"); githubToken != "" {
		integrations.TicketConnectors["GITHUB"] = integration.NewGitHubConnector(githubToken)
	}

	if cicdURL := os.Getenv("CICD_BASE_URL"); cicdURL != "" {
		integrations.CICD = integration.NewWebhookCICDConnector(cicdURL, os.Getenv("CICD_TOKEN"))
	}

	if statusURL := os.Getenv("STATUS_BASE_URL"); statusURL != "" {
		integrations.Status = integration.NewHTTPStatusUpdater(statusURL, os.Getenv("STATUS_TOKEN"))
	}

	return integrations
}

// NewRegistry registers the native action handlers.
func NewRegistry(
	logger *slog.Logger,
	integrations *Integrations,
	reminderService *reminder.Service,
	approvalService *approval.Service,
) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(message.NewFactory(integrations.Notifier))
	reg.Register(ticket.NewFactory(integrations.TicketConnectors))
	reg.Register(notify.NewFactory(integrations.Notifier))
	reg.Register(cicd.NewFactory(integrations.CICD))
	reg.Register(statusaction.NewFactory(integrations.Status))
	reg.Register(remind.NewFactory(reminderService))
	reg.Register(approve.NewFactory(approvalService))

	return reg
}
