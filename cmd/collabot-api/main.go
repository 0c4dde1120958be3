package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/agarg/collabot/pkg/approval"
	"github.com/agarg/collabot/pkg/cmd"
	"github.com/agarg/collabot/pkg/engine"
	"github.com/agarg/collabot/pkg/log"
	"github.com/agarg/collabot/pkg/reminder"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "collabot-api",
		Usage:                 "Manage workflows, reminders and approvals over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Collabot API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "collabot-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			integrations := cmd.NewIntegrations(logger)
			reminderService := reminder.NewService(logger, persistence.ReminderRepository(), integrations.Notifier, eventBus)
			approvalService := approval.NewService(logger, persistence.ApprovalRepository(), eventBus)
			registry := cmd.NewRegistry(logger, integrations, reminderService, approvalService)

			// The API never runs the engine pool; it only reads and cancels
			// executions through the shared repository.
			executionEngine := engine.NewEngine(logger, persistence.ExecutionRepository(), registry, eventBus, 0)

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				executionEngine,
				reminderService,
				approvalService,
			)

			if err := api.Start(int(command.Int("port"))); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
