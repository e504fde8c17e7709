// Package main provides the goalflow command: goal-driven task-graph
// workflow execution.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/goalflow/goalflow/pkg/examples"
	"github.com/goalflow/goalflow/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "goalflow",
		Usage:                 "Execute goal-driven task-graph workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Run a workflow from a plan file",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "goal",
						Aliases: []string{"g"},
						Usage:   "Goal the workflow pursues (recorded on the run)",
					},
					&cli.StringFlag{
						Name:  "plan-file",
						Usage: "YAML plan file with the task declarations",
					},
				}, runFlags()...),
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					if command.String("plan-file") == "" {
						return cli.Exit("a --plan-file is required (goal-only planning needs an external planner)", 2)
					}

					return runWorkflow(ctx, command, runInput{
						goal:     command.String("goal"),
						planFile: command.String("plan-file"),
					})
				},
			},
			{
				Name:  "example",
				Usage: "Work with the bundled example plans",
				Commands: []*cli.Command{
					{
						Name:      "run",
						Usage:     "Run a bundled example plan",
						ArgsUsage: fmt.Sprintf("<%s>", examplesUsage()),
						Flags:     runFlags(),
						Action: func(ctx context.Context, command *cli.Command) error {
							log.Setup(command.String("log-level"))

							example, err := examples.ByName(command.Args().First())
							if err != nil {
								return cli.Exit(err.Error(), 2)
							}

							return runWorkflow(ctx, command, runInput{
								goal:         example.Goal,
								workflowType: example.WorkflowType,
								declarations: example.Declarations,
							})
						},
					},
					{
						Name:  "list",
						Usage: "List the bundled example plans",
						Action: func(_ context.Context, _ *cli.Command) error {
							for _, name := range examples.Names() {
								fmt.Println(name)
							}

							return nil
						},
					},
				},
			},
			apiCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// runFlags are shared by `run` and `example run`.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "workflow-id",
			Usage: "Custom workflow ID (auto-generated if not provided)",
		},
		&cli.IntFlag{
			Name:    "max-retries",
			Usage:   "Retries per task on top of the initial attempt",
			Value:   3,
			Sources: cli.EnvVars("GOALFLOW_MAX_RETRIES"),
		},
		&cli.IntFlag{
			Name:    "max-parallel",
			Usage:   "Ready tasks allowed in flight at once",
			Value:   1,
			Sources: cli.EnvVars("GOALFLOW_MAX_PARALLEL"),
		},
		&cli.DurationFlag{
			Name:    "task-timeout",
			Usage:   "Per-task execution timeout",
			Value:   60 * time.Second,
			Sources: cli.EnvVars("GOALFLOW_TASK_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:  "base-delay",
			Usage: "Base retry backoff delay",
			Value: time.Second,
		},
		&cli.DurationFlag{
			Name:  "max-delay",
			Usage: "Retry backoff cap",
			Value: 30 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "jitter",
			Usage: "Randomize retry backoff delays",
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Snapshot persistence URL (file://dir or redis://host)",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "postgres-dsn",
			Usage:   "Default connection string for db_query tasks",
			Sources: cli.EnvVars("POSTGRES_DSN"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Emit OpenTelemetry spans for the run",
			Sources: cli.EnvVars("GOALFLOW_TRACING"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

func examplesUsage() string {
	usage := ""

	for i, name := range examples.Names() {
		if i > 0 {
			usage += "|"
		}

		usage += name
	}

	return usage
}

func exitCode(err error) int {
	if coder, ok := err.(cli.ExitCoder); ok {
		return coder.ExitCode()
	}

	return 1
}
