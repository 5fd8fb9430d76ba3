// Package main provides the Conduit API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/registry"
	"github.com/conduitcrm/conduit/pkg/services"
	"github.com/conduitcrm/conduit/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	dueIndex    dueindex.Index
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	dueIndex dueindex.Index,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		dueIndex:    dueIndex,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	// The API only validates node configs at publish time; execution
	// collaborators are wired in the worker, not here.
	nodeRegistry := registry.NewRegistry(a.logger)
	nodeRegistry.RegisterDefaults(registry.Dependencies{})

	workflowService := services.NewWorkflow(a.persistence, nodeRegistry, a.eventBus)
	campaignService := services.NewCampaign(a.persistence, a.dueIndex, a.eventBus)
	reminderService := services.NewReminder(a.persistence, a.dueIndex)

	handlers := web.NewAPIHandlers(workflowService, campaignService, reminderService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Conduit API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
