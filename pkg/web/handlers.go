package web

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/registry"
	"github.com/glowdesk/glowdesk/pkg/services"
)

type APIHandlers struct {
	organizationService *services.Organization
	clientService       *services.Client
	directoryService    *services.Directory
	workflowService     *services.Workflow
	enrollmentService   *services.Enrollment
	messagingService    *services.Messaging
	socialService       *services.Social
	validator           *validator.Validate
	registry            *registry.Registry
}

func NewAPIHandlers(
	organizationService *services.Organization,
	clientService *services.Client,
	directoryService *services.Directory,
	workflowService *services.Workflow,
	enrollmentService *services.Enrollment,
	messagingService *services.Messaging,
	socialService *services.Social,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		organizationService: organizationService,
		clientService:       clientService,
		directoryService:    directoryService,
		workflowService:     workflowService,
		enrollmentService:   enrollmentService,
		messagingService:    messagingService,
		socialService:       socialService,
		validator:           validator,
		registry:            registry,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, ok := h.organizationService.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if !ok {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":      status,
		"persistence": message,
	})
}

// Organizations

func (h *APIHandlers) CreateOrganization(c fiber.Ctx) error {
	var req CreateOrganizationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.organizationService.Create(c.Context(), &models.Organization{
		Name:   req.Name,
		Limits: req.Limits,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetOrganizations(c fiber.Ctx) error {
	orgs, err := h.organizationService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(orgs)
}

func (h *APIHandlers) GetOrganization(c fiber.Ctx) error {
	org, err := h.organizationService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(org)
}

func (h *APIHandlers) UpdateOrganization(c fiber.Ctx) error {
	var req CreateOrganizationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.organizationService.Update(c.Context(), &models.Organization{
		ID:     c.Params("id"),
		Name:   req.Name,
		Limits: req.Limits,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteOrganization(c fiber.Ctx) error {
	err := h.organizationService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Clients

func (h *APIHandlers) CreateClient(c fiber.Ctx) error {
	var req CreateClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.clientService.Create(c.Context(), &models.Client{
		OrganizationID: OrganizationID(c),
		FullName:       req.FullName,
		Phones:         req.Phones,
		Email:          req.Email,
		Tags:           req.Tags,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetClients(c fiber.Ctx) error {
	clients, err := h.clientService.List(c.Context(), OrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(clients)
}

func (h *APIHandlers) GetClient(c fiber.Ctx) error {
	client, err := h.clientService.Get(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(client)
}

func (h *APIHandlers) UpdateClient(c fiber.Ctx) error {
	var req UpdateClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	client := &models.Client{
		ID:             c.Params("id"),
		OrganizationID: OrganizationID(c),
		FullName:       req.FullName,
		Phones:         req.Phones,
		Email:          req.Email,
		Tags:           req.Tags,
		PortalStatus:   req.PortalStatus,
	}

	updated, err := h.clientService.Update(c.Context(), client)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteClient(c fiber.Ctx) error {
	err := h.clientService.Delete(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddClientTag(c fiber.Ctx) error {
	var req TagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	client, err := h.clientService.AddTag(c.Context(), OrganizationID(c), c.Params("id"), req.Tag)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(client)
}

func (h *APIHandlers) RemoveClientTag(c fiber.Ctx) error {
	client, err := h.clientService.RemoveTag(c.Context(), OrganizationID(c), c.Params("id"), c.Params("tag"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(client)
}

func (h *APIHandlers) GetClientExecutions(c fiber.Ctx) error {
	executions, err := h.enrollmentService.ListByClient(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

// ReportEvent ingests an external domain event about a client.
func (h *APIHandlers) ReportEvent(c fiber.Ctx) error {
	var req EventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.clientService.EmitEvent(c.Context(), OrganizationID(c), req.ClientID, events.EventType(req.Type), req.Data)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// Directories

func (h *APIHandlers) CreateDirectory(c fiber.Ctx) error {
	var req CreateDirectoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.directoryService.Create(c.Context(), &models.WorkflowDirectory{
		OrganizationID: OrganizationID(c),
		Name:           req.Name,
		ParentID:       req.ParentID,
		Color:          req.Color,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetDirectoryTree(c fiber.Ctx) error {
	tree, err := h.directoryService.Tree(c.Context(), OrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tree)
}

func (h *APIHandlers) GetDirectory(c fiber.Ctx) error {
	directory, err := h.directoryService.Get(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(directory)
}

func (h *APIHandlers) UpdateDirectory(c fiber.Ctx) error {
	var req UpdateDirectoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.directoryService.Update(c.Context(), &models.WorkflowDirectory{
		ID:             c.Params("id"),
		OrganizationID: OrganizationID(c),
		Name:           req.Name,
		ParentID:       req.ParentID,
		Color:          req.Color,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteDirectory(c fiber.Ctx) error {
	err := h.directoryService.Delete(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetDirectoryWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.ListByDirectory(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

// Workflows

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), &models.Workflow{
		OrganizationID: OrganizationID(c),
		Name:           req.Name,
		Trigger:        req.Trigger,
		TriggerConfig:  req.TriggerConfig,
		Enabled:        req.Enabled,
		Blocks:         req.Blocks,
		Connections:    req.Connections,
		DirectoryID:    req.DirectoryID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), OrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Get(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), &models.Workflow{
		ID:             c.Params("id"),
		OrganizationID: OrganizationID(c),
		Name:           req.Name,
		Trigger:        req.Trigger,
		TriggerConfig:  req.TriggerConfig,
		Enabled:        req.Enabled,
		Blocks:         req.Blocks,
		Connections:    req.Connections,
		DirectoryID:    req.DirectoryID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	executions, err := h.enrollmentService.ListByWorkflow(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

// GetStepTypes lists the registered workflow step types.
func (h *APIHandlers) GetStepTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"steps": h.registry.AvailableSteps()})
}

// Executions

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.fetchExecution(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetExecutionLogs(c fiber.Ctx) error {
	_, err := h.fetchExecution(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	logs, err := h.enrollmentService.Logs(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(logs)
}

func (h *APIHandlers) CompleteExecutionAction(c fiber.Ctx) error {
	var req CompleteActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	_, err := h.fetchExecution(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	updated, err := h.enrollmentService.AddCompletedAction(c.Context(), c.Params("id"), *req.Index)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) UpdateExecutionStatus(c fiber.Ctx) error {
	var req UpdateExecutionStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	_, err := h.fetchExecution(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	updated, err := h.enrollmentService.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.Error)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// fetchExecution loads the execution and enforces the tenant boundary.
func (h *APIHandlers) fetchExecution(c fiber.Ctx) (*models.WorkflowExecution, error) {
	execution, err := h.enrollmentService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}

	if execution.OrganizationID != OrganizationID(c) {
		return nil, services.ErrInvalidRequest
	}

	return execution, nil
}

// Bulk messages

func (h *APIHandlers) CreateBulkMessage(c fiber.Ctx) error {
	var req CreateBulkMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.messagingService.Create(c.Context(), &models.BulkMessage{
		OrganizationID: OrganizationID(c),
		Channel:        req.Channel,
		Subject:        req.Subject,
		Body:           req.Body,
		ScheduledFor:   req.ScheduledFor,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetBulkMessages(c fiber.Ctx) error {
	messages, err := h.messagingService.List(c.Context(), OrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(messages)
}

func (h *APIHandlers) GetBulkMessage(c fiber.Ctx) error {
	message, err := h.messagingService.Get(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(message)
}

func (h *APIHandlers) SendBulkMessage(c fiber.Ctx) error {
	var req SendBulkMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	message, err := h.messagingService.Send(c.Context(), OrganizationID(c), c.Params("id"), req.ClientIDs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(message)
}

func (h *APIHandlers) GetBulkMessageRecipients(c fiber.Ctx) error {
	_, err := h.messagingService.Get(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	recipients, err := h.messagingService.Recipients(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(recipients)
}

func (h *APIHandlers) UpdateRecipientStatus(c fiber.Ctx) error {
	var req UpdateRecipientStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	recipient, err := h.messagingService.UpdateRecipientStatus(c.Context(), OrganizationID(c), c.Params("recipientId"), req.Status, req.ExternalID, req.Error)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(recipient)
}

// Social posts

func (h *APIHandlers) CreateSocialPost(c fiber.Ctx) error {
	var req CreateSocialPostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.socialService.Create(c.Context(), &models.SocialPost{
		OrganizationID: OrganizationID(c),
		Platforms:      req.Platforms,
		Content:        req.Content,
		MediaURLs:      req.MediaURLs,
		ScheduledFor:   req.ScheduledFor,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetSocialPosts(c fiber.Ctx) error {
	posts, err := h.socialService.List(c.Context(), OrganizationID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(posts)
}

func (h *APIHandlers) GetSocialPost(c fiber.Ctx) error {
	post, err := h.socialService.Get(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(post)
}

func (h *APIHandlers) DeleteSocialPost(c fiber.Ctx) error {
	err := h.socialService.Delete(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishSocialPost(c fiber.Ctx) error {
	post, err := h.socialService.PublishNow(c.Context(), OrganizationID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(post)
}
