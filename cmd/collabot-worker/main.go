package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/agarg/collabot/pkg/approval"
	"github.com/agarg/collabot/pkg/cmd"
	"github.com/agarg/collabot/pkg/engine"
	"github.com/agarg/collabot/pkg/log"
	"github.com/agarg/collabot/pkg/reminder"
)

func main() {
	command := &cli.Command{
		Name:                  "collabot-worker",
		EnableShellCompletion: true,
		Usage:                 "Run the matcher, execution engine and reminder scanner",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
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
				Name:    "bot-name",
				Usage:   "Bot handle used for mention triggers",
				Value:   "collabot",
				Sources: cli.EnvVars("BOT_NAME"),
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Number of execution workers",
				Value:   engine.DefaultWorkerCount,
				Sources: cli.EnvVars("EXECUTION_WORKERS"),
			},
			&cli.DurationFlag{
				Name:    "reminder-scan-interval",
				Usage:   "Interval between reminder scans",
				Value:   time.Minute,
				Sources: cli.EnvVars("REMINDER_SCAN_INTERVAL"),
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("collabot-worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Collabot Worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "collabot-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			integrations := cmd.NewIntegrations(logger)
			reminderService := reminder.NewService(logger, persistence.ReminderRepository(), integrations.Notifier, eventBus)
			approvalService := approval.NewService(logger, persistence.ApprovalRepository(), eventBus)
			registry := cmd.NewRegistry(logger, integrations, reminderService, approvalService)

			executionEngine := engine.NewEngine(
				logger,
				persistence.ExecutionRepository(),
				registry,
				eventBus,
				int(command.Int("workers")),
			)

			matcher := engine.NewMatcher(logger, persistence.WorkflowRepository(), command.String("bot-name"))
			scanner := reminder.NewScanner(logger, reminderService, command.Duration("reminder-scan-interval"))

			worker := NewWorker(workerID, logger, matcher, executionEngine, scanner, eventBus)

			return worker.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
