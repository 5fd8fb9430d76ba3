package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/conduitcrm/conduit/pkg/aiclient"
	"github.com/conduitcrm/conduit/pkg/channelclient"
	"github.com/conduitcrm/conduit/pkg/cmd"
	"github.com/conduitcrm/conduit/pkg/log"
	"github.com/conduitcrm/conduit/pkg/objectives"
	"github.com/conduitcrm/conduit/pkg/registry"
)

func main() {
	command := &cli.Command{
		Name:                  "conduit-worker",
		Usage:                 "Execute workflow runs delivered over the event bus",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "due-index-url",
				Usage:   "Redis URL for the due-time index (in-memory if empty)",
				Sources: cli.EnvVars("DUE_INDEX_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "gateway-url",
				Usage:    "Base URL of the message gateway",
				Required: true,
				Sources:  cli.EnvVars("GATEWAY_URL"),
			},
			&cli.StringFlag{
				Name:    "gateway-api-key",
				Usage:   "API key for the message gateway",
				Sources: cli.EnvVars("GATEWAY_API_KEY"),
			},
			&cli.StringFlag{
				Name:     "ai-gateway-url",
				Usage:    "Base URL of the AI gateway",
				Required: true,
				Sources:  cli.EnvVars("AI_GATEWAY_URL"),
			},
			&cli.StringFlag{
				Name:    "ai-gateway-api-key",
				Usage:   "API key for the AI gateway",
				Sources: cli.EnvVars("AI_GATEWAY_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (json, text)",
				Value:   "json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("conduit-worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Conduit Worker")

			persistence, err := cmd.NewPersistence(ctx, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			dueIndex, err := cmd.NewDueIndex(ctx, command.String("due-index-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := dueIndex.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close due index", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "conduit-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			gateway := channelclient.New(command.String("gateway-url"), command.String("gateway-api-key"))
			aiGateway := aiclient.New(command.String("ai-gateway-url"), command.String("ai-gateway-api-key"))
			evaluator := objectives.NewEvaluator(aiGateway, aiGateway, logger)

			nodeRegistry := cmd.NewRegistry(logger, registry.Dependencies{
				Evaluator: evaluator,
				Provider:  gateway,
			})

			worker := NewWorkerManager(workerID, persistence, nodeRegistry, eventBus, dueIndex, logger)

			return worker.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
