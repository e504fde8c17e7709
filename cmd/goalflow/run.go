package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/goalflow/goalflow/pkg/cmd"
	"github.com/goalflow/goalflow/pkg/engine"
	"github.com/goalflow/goalflow/pkg/log"
	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/observability"
	"github.com/goalflow/goalflow/pkg/otelhelper"
	"github.com/goalflow/goalflow/pkg/planner"
	"github.com/goalflow/goalflow/pkg/protocol"
)

type runInput struct {
	goal         string
	planFile     string
	workflowType string
	declarations []models.TaskDeclaration
}

// runWorkflow wires an engine from the command flags, runs the workflow, and
// prints the run summary. The process exits 0 only for a completed workflow.
func runWorkflow(ctx context.Context, command *cli.Command, input runInput) error {
	logger := log.WithModule("run")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := models.Config{
		MaxRetries:   command.Int("max-retries"),
		MaxParallel:  command.Int("max-parallel"),
		TaskTimeout:  command.Duration("task-timeout"),
		BaseDelay:    command.Duration("base-delay"),
		MaxDelay:     command.Duration("max-delay"),
		Jitter:       command.Bool("jitter"),
		WorkflowType: input.workflowType,
	}

	var plnr protocol.Planner
	if input.planFile != "" {
		plnr = planner.NewManifest(input.planFile)
	} else {
		plnr = planner.NewStatic(input.declarations)
	}

	opts := []engine.Option{}

	if databaseURL := command.String("database-url"); databaseURL != "" {
		store, err := cmd.NewPersistence(ctx, databaseURL)
		if err != nil {
			return cli.Exit(fmt.Sprintf("persistence: %v", err), 2)
		}

		defer func() {
			if err := store.Close(context.WithoutCancel(ctx)); err != nil {
				logger.Error("Failed to close persistence", "error", err)
			}
		}()

		opts = append(opts, engine.WithPersistence(store))
	}

	if command.Bool("tracing") {
		tracer, err := otelhelper.NewTracer(ctx, "goalflow")
		if err != nil {
			return cli.Exit(fmt.Sprintf("tracing: %v", err), 2)
		}

		opts = append(opts, engine.WithTracer(tracer))
	}

	registry := cmd.NewRegistry(logger, command.String("postgres-dsn"))
	eng := engine.New(logger, registry, plnr, opts...)

	result, runErr := eng.Run(ctx, input.goal, engine.RunOptions{
		WorkflowID: command.String("workflow-id"),
		Config:     &cfg,
	})
	if result == nil {
		return cli.Exit(fmt.Sprintf("run: %v", runErr), 2)
	}

	recorder := observability.NewRecorder(logger)
	metrics := recorder.Collect(result)
	recorder.LogSummary(metrics)
	fmt.Print(metrics.Summary())

	if result.Context.Status != models.WorkflowStatusCompleted {
		return cli.Exit(fmt.Sprintf("workflow %s: %s", result.Context.Status, result.Context.FailureReason), 1)
	}

	return nil
}
