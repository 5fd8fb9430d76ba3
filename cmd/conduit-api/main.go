package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/conduitcrm/conduit/pkg/cmd"
	"github.com/conduitcrm/conduit/pkg/log"
)

const defaultPort = 9090

func main() {
	command := &cli.Command{
		Name:                  "conduit-api",
		Usage:                 "Tenant-facing REST API for workflows, campaigns and reminders",
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

			logger := log.WithModule("conduit-api")
			logger.InfoContext(ctx, "Initializing Conduit API")

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

			eventBus := cmd.NewEventBus(command.String("event-bus"), "conduit-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(logger, persistence, dueIndex, eventBus)

			return api.Start(int(command.Int("port")))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
