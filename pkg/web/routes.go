package web

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes mounts all API endpoints. Everything except organization
// management and health is tenant scoped.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	app.Get("/health", handlers.HealthCheck)

	o := app.Group("/organizations")
	o.Get("/", handlers.GetOrganizations)
	o.Post("/", handlers.CreateOrganization)
	o.Get("/:id", handlers.GetOrganization)
	o.Patch("/:id", handlers.UpdateOrganization)
	o.Delete("/:id", handlers.DeleteOrganization)

	tenant := app.Group("/", TenantMiddleware())

	c := tenant.Group("/clients")
	c.Get("/", handlers.GetClients)
	c.Post("/", handlers.CreateClient)
	c.Get("/:id", handlers.GetClient)
	c.Patch("/:id", handlers.UpdateClient)
	c.Delete("/:id", handlers.DeleteClient)
	c.Post("/:id/tags", handlers.AddClientTag)
	c.Delete("/:id/tags/:tag", handlers.RemoveClientTag)
	c.Get("/:id/executions", handlers.GetClientExecutions)

	tenant.Post("/events", handlers.ReportEvent)

	d := tenant.Group("/directories")
	d.Get("/", handlers.GetDirectoryTree)
	d.Post("/", handlers.CreateDirectory)
	d.Get("/:id", handlers.GetDirectory)
	d.Patch("/:id", handlers.UpdateDirectory)
	d.Delete("/:id", handlers.DeleteDirectory)
	d.Get("/:id/workflows", handlers.GetDirectoryWorkflows)

	w := tenant.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/steps", handlers.GetStepTypes)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	e := tenant.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/logs", handlers.GetExecutionLogs)
	e.Post("/:id/complete-action", handlers.CompleteExecutionAction)
	e.Patch("/:id/status", handlers.UpdateExecutionStatus)

	m := tenant.Group("/bulk-messages")
	m.Get("/", handlers.GetBulkMessages)
	m.Post("/", handlers.CreateBulkMessage)
	m.Get("/:id", handlers.GetBulkMessage)
	m.Post("/:id/send", handlers.SendBulkMessage)
	m.Get("/:id/recipients", handlers.GetBulkMessageRecipients)
	m.Patch("/:id/recipients/:recipientId", handlers.UpdateRecipientStatus)

	p := tenant.Group("/social-posts")
	p.Get("/", handlers.GetSocialPosts)
	p.Post("/", handlers.CreateSocialPost)
	p.Get("/:id", handlers.GetSocialPost)
	p.Delete("/:id", handlers.DeleteSocialPost)
	p.Post("/:id/publish", handlers.PublishSocialPost)
}
