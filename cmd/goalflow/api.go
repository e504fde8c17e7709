package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"

	"github.com/goalflow/goalflow/pkg/cmd"
	"github.com/goalflow/goalflow/pkg/log"
	"github.com/goalflow/goalflow/pkg/web"
)

const defaultPort = 9091

func apiCommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Serve the read-only workflow inspection API",
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
				Usage:    "Snapshot persistence URL (file://dir or redis://host)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
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
			logger := log.WithModule("api")

			store, err := cmd.NewPersistence(ctx, command.String("database-url"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("persistence: %v", err), 2)
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.Error("Failed to close persistence", "error", err)
				}
			}()

			app := fiber.New()
			app.Use(cors.New())
			app.Use(fiberlogger.New(fiberlogger.Config{
				DisableColors: true,
			}))

			web.NewAPIHandlers(store, logger).RegisterRoutes(app)

			logger.Info("Starting inspection API", "port", command.Int("port"))

			return app.Listen(":" + strconv.Itoa(command.Int("port")))
		},
	}
}
