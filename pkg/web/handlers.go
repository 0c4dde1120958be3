package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/agarg/collabot/pkg/approval"
	"github.com/agarg/collabot/pkg/engine"
	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/events"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/reminder"
	"github.com/agarg/collabot/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	engine          *engine.Engine
	reminderService *reminder.Service
	approvalService *approval.Service
	publisher       eventbus.EventPublisher
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	executionEngine *engine.Engine,
	reminderService *reminder.Service,
	approvalService *approval.Service,
	publisher eventbus.EventPublisher,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		engine:          executionEngine,
		reminderService: reminderService,
		approvalService: approvalService,
		publisher:       publisher,
		validator:       validate,
	}
}

// EmitEvent accepts a collaboration event and hands it to the worker via the
// event bus. The response is 202: matching and execution happen
// asynchronously.
func (h *APIHandlers) EmitEvent(c fiber.Ctx) error {
	var req EmitEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	triggerType := models.TriggerType(req.Type)
	if !models.ValidTriggerType(triggerType) {
		return badRequest(c, "Unknown event type: "+req.Type)
	}

	event := models.Event{
		ID:        uuid.New().String(),
		Type:      triggerType,
		Content:   req.Content,
		ChannelID: req.ChannelID,
		UserID:    req.UserID,
		Payload:   req.Payload,
		Timestamp: time.Now().UTC(),
	}

	received := events.EventReceived{
		BaseEvent: events.NewBaseEvent(events.EventReceivedEvent),
		Event:     event,
	}

	if err := h.publisher.Publish(c.Context(), event.ID, received); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"event_id": event.ID,
		"status":   "accepted",
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.Create(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.Update(c.Context(), c.Params("id"), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) EnableWorkflow(c fiber.Ctx) error {
	return h.setWorkflowEnabled(c, true)
}

func (h *APIHandlers) DisableWorkflow(c fiber.Ctx) error {
	return h.setWorkflowEnabled(c, false)
}

func (h *APIHandlers) setWorkflowEnabled(c fiber.Ctx, enabled bool) error {
	workflow, err := h.workflowService.SetEnabled(c.Context(), c.Params("id"), enabled)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.engine.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.engine.Cancel(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	execution, err := h.engine.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) CreateReminder(c fiber.Ctx) error {
	var req CreateReminderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	remindAt := time.Now().UTC().Add(time.Duration(req.DelaySeconds) * time.Second)
	if req.RemindAt != nil {
		remindAt = req.RemindAt.UTC()
	}

	created, err := h.reminderService.Create(c.Context(),
		req.Owner, req.ChannelID, req.Title, req.Description, remindAt)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetReminder(c fiber.Ctx) error {
	found, err := h.reminderService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) CancelReminder(c fiber.Ctx) error {
	cancelled, err := h.reminderService.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(cancelled)
}

// GetReminders lists reminders for an owner. With triggered=true only the
// already-fired ones are returned.
func (h *APIHandlers) GetReminders(c fiber.Ctx) error {
	owner := c.Query("owner")
	if owner == "" {
		return badRequest(c, "owner query parameter is required")
	}

	var (
		reminders []*models.Reminder
		err       error
	)

	if c.Query("triggered") == "true" {
		reminders, err = h.reminderService.ListTriggered(c.Context(), owner)
	} else {
		reminders, err = h.reminderService.ListByOwner(c.Context(), owner)
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"reminders": reminders})
}

func (h *APIHandlers) CreateApproval(c fiber.Ctx) error {
	var req CreateApprovalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.approvalService.Create(c.Context(),
		req.Requester, req.ChannelID, req.Title, req.Description, req.ApproverIDs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetApproval(c fiber.Ctx) error {
	found, err := h.approvalService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) VoteApproval(c fiber.Ctx) error {
	var req VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.approvalService.Vote(c.Context(),
		c.Params("id"), req.ApproverID, *req.Approved, req.Comment)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// GetApprovals lists pending approval requests awaiting the given approver.
func (h *APIHandlers) GetApprovals(c fiber.Ctx) error {
	approverID := c.Query("approver")
	if approverID == "" {
		return badRequest(c, "approver query parameter is required")
	}

	pending, err := h.approvalService.ListPendingForApprover(c.Context(), approverID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"approvals": pending})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Collabot API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Collabot API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
