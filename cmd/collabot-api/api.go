// Package main provides the Collabot API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/agarg/collabot/pkg/approval"
	"github.com/agarg/collabot/pkg/engine"
	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/registry"
	"github.com/agarg/collabot/pkg/reminder"
	"github.com/agarg/collabot/pkg/services"
	"github.com/agarg/collabot/pkg/web"
)

type API struct {
	logger          *slog.Logger
	persistence     persistence.Persistence
	registry        *registry.Registry
	eventBus        eventbus.EventBus
	engine          *engine.Engine
	reminderService *reminder.Service
	approvalService *approval.Service
	validate        *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
	executionEngine *engine.Engine,
	reminderService *reminder.Service,
	approvalService *approval.Service,
) *API {
	return &API{
		logger:          logger,
		persistence:     persistence,
		registry:        reg,
		eventBus:        eventBus,
		engine:          executionEngine,
		reminderService: reminderService,
		approvalService: approvalService,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.registry)

	handlers := web.NewAPIHandlers(
		workflowService,
		a.engine,
		a.reminderService,
		a.approvalService,
		a.eventBus,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Collabot API")
	})

	app.Post("/events", handlers.EmitEvent)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/enable", handlers.EnableWorkflow)
	w.Post("/:id/disable", handlers.DisableWorkflow)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/cancel", handlers.CancelExecution)

	r := app.Group("/reminders")
	r.Get("/", handlers.GetReminders)
	r.Post("/", handlers.CreateReminder)
	r.Get("/:id", handlers.GetReminder)
	r.Delete("/:id", handlers.CancelReminder)

	ap := app.Group("/approvals")
	ap.Get("/", handlers.GetApprovals)
	ap.Post("/", handlers.CreateApproval)
	ap.Get("/:id", handlers.GetApproval)
	ap.Post("/:id/votes", handlers.VoteApproval)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
