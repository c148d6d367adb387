// Package main provides the Glowdesk API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/publisher"
	"github.com/glowdesk/glowdesk/pkg/registry"
	"github.com/glowdesk/glowdesk/pkg/services"
	"github.com/glowdesk/glowdesk/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	platforms := publisher.NewMultiPlatformPublisher(a.logger,
		publisher.NewSimulatedPlatform("instagram", a.logger),
		publisher.NewSimulatedPlatform("facebook", a.logger),
		publisher.NewSimulatedPlatform("tiktok", a.logger),
	)

	handlers := web.NewAPIHandlers(
		services.NewOrganization(a.persistence),
		services.NewClient(a.persistence, a.eventBus),
		services.NewDirectory(a.persistence),
		services.NewWorkflow(a.persistence, a.registry),
		services.NewEnrollment(a.persistence),
		services.NewMessaging(a.persistence, a.eventBus),
		services.NewSocial(a.persistence, platforms, a.eventBus),
		a.validate,
		a.registry,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Glowdesk API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
