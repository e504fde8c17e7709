// Package engine runs a workflow to completion: it plans the task graph,
// dispatches ready tasks to executors, applies outcomes, and routes failures
// through the retry policy. The engine goroutine is the only writer of the
// graph, the memory store, and the workflow context.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goalflow/goalflow/pkg/graph"
	"github.com/goalflow/goalflow/pkg/memory"
	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/otelhelper"
	"github.com/goalflow/goalflow/pkg/persistence"
	"github.com/goalflow/goalflow/pkg/protocol"
	"github.com/goalflow/goalflow/pkg/registry"
	"github.com/goalflow/goalflow/pkg/retry"
)

// Engine coordinates one or more workflow runs. It is safe to share across
// runs; all per-run state lives on the run itself.
type Engine struct {
	logger      *slog.Logger
	registry    *registry.Registry
	planner     protocol.Planner
	decider     retry.Decider
	persistence persistence.Persistence
	tracer      trace.Tracer
	validator   *validator.Validate
	now         func() time.Time
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithDecider installs an external failure-recovery decider consulted before
// the default retry policy.
func WithDecider(decider retry.Decider) Option {
	return func(e *Engine) { e.decider = decider }
}

// WithPersistence saves the terminal snapshot through the given backend.
func WithPersistence(p persistence.Persistence) Option {
	return func(e *Engine) { e.persistence = p }
}

// WithTracer emits a span per run and per task attempt.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// New builds an engine around an executor registry and a planner.
func New(logger *slog.Logger, reg *registry.Registry, plnr protocol.Planner, opts ...Option) *Engine {
	e := &Engine{
		logger:    logger,
		registry:  reg,
		planner:   plnr,
		validator: validator.New(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RunOptions parameterizes a single run. Declarations, when set, bypass the
// planner (plan-file and example runs).
type RunOptions struct {
	WorkflowID   string
	Config       *models.Config
	Declarations []models.TaskDeclaration
}

// Run executes a workflow for the goal and returns its terminal result. Task
// failures and planning failures shape the terminal context, not the returned
// error: the error is non-nil only for engine misuse, invariant violations,
// or external cancellation.
func (e *Engine) Run(ctx context.Context, goal string, opts RunOptions) (*models.WorkflowResult, error) {
	if e.registry == nil {
		return nil, fmt.Errorf("engine has no executor registry")
	}

	if e.planner == nil && len(opts.Declarations) == 0 {
		return nil, fmt.Errorf("engine has no planner and no declarations were supplied")
	}

	cfg := models.DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	normalizeConfig(&cfg)

	id := opts.WorkflowID
	if id == "" {
		id = "wf-" + uuid.New().String()[:8]
	}

	now := e.now()
	r := &run{
		engine: e,
		logger: e.logger.With("workflow_id", id),
		store:  memory.NewStore(),
		policy: retry.NewPolicy(cfg),
		cfg:    cfg,
		ctx: models.WorkflowContext{
			ID:        id,
			Goal:      goal,
			Status:    models.WorkflowStatusInitialized,
			Config:    cfg,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	var span trace.Span
	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.run",
			attribute.String(otelhelper.WorkflowIDKey, id),
			attribute.String(otelhelper.WorkflowGoalKey, goal),
		)
		defer span.End()
	}

	runErr := r.execute(ctx, opts.Declarations)
	if runErr != nil && !r.ctx.Status.IsTerminal() {
		// Construction-time or invariant errors propagate to the caller;
		// only terminal outcomes produce a result.
		return nil, runErr
	}

	result := r.result()
	e.persistSnapshot(ctx, result)

	if span != nil && result.Context.Status == models.WorkflowStatusFailed {
		otelhelper.SetError(span, fmt.Errorf("%s", result.Context.FailureReason))
	}

	return result, runErr
}

// run is the mutable state of one workflow execution. Only the engine
// goroutine touches it.
type run struct {
	engine *Engine
	logger *slog.Logger
	ctx    models.WorkflowContext
	cfg    models.Config
	graph  *graph.TaskGraph
	store  *memory.Store
	policy *retry.Policy
}

func (r *run) execute(ctx context.Context, declarations []models.TaskDeclaration) error {
	if err := r.plan(ctx, declarations); err != nil {
		var planningErr *PlanningError
		if errors.As(err, &planningErr) {
			r.fail(err)
			return nil
		}

		return err
	}

	r.setStatus(models.WorkflowStatusExecuting)
	r.logger.Info("Workflow executing", "tasks", r.graph.Len(), "max_parallel", r.cfg.MaxParallel)

	for {
		if err := ctx.Err(); err != nil {
			r.fail(fmt.Errorf("workflow canceled: %w", err))
			return err
		}

		r.graph.ReleaseDueRetries(r.engine.now())

		ready := r.graph.ReadyTasks()
		if len(ready) == 0 {
			if r.graph.IsTerminal() {
				break
			}

			if next, ok := r.graph.NextRetryAt(); ok {
				if err := r.engine.sleepUntil(ctx, next); err != nil {
					continue // the loop top reports the cancellation
				}

				continue
			}

			r.fail(&DeadlockError{TaskIDs: r.graph.Unreachable()})

			return nil
		}

		workflowErr, err := r.dispatchBatch(ctx, ready)
		if err != nil {
			return err
		}

		if workflowErr != nil {
			r.fail(workflowErr)
			return nil
		}
	}

	r.setStatus(models.WorkflowStatusCompleted)
	r.logger.Info("Workflow completed", "tasks", r.graph.Len())

	return nil
}

// plan resolves and validates the task declarations and builds the graph.
// Planner failures come back as *PlanningError and fail the workflow;
// declaration and graph construction errors are fatal and propagate to the
// Run caller.
func (r *run) plan(ctx context.Context, declarations []models.TaskDeclaration) error {
	r.setStatus(models.WorkflowStatusPlanning)

	if len(declarations) == 0 {
		planned, err := r.engine.planner.Plan(ctx, r.ctx.Goal, r.cfg)
		if err != nil {
			return &PlanningError{Goal: r.ctx.Goal, Err: err}
		}

		if len(planned) == 0 {
			return &PlanningError{Goal: r.ctx.Goal, Err: fmt.Errorf("plan declares no tasks")}
		}

		declarations = planned
	}

	for _, decl := range declarations {
		if err := r.engine.validator.Struct(decl); err != nil {
			return fmt.Errorf("invalid declaration %q: %w", decl.ID, err)
		}
	}

	g, err := graph.New(declarations)
	if err != nil {
		return fmt.Errorf("building task graph: %w", err)
	}

	r.graph = g

	return nil
}

// attemptOutcome is what an executor goroutine hands back to the engine
// goroutine. It carries no references into the run state.
type attemptOutcome struct {
	taskID     string
	startedAt  time.Time
	finishedAt time.Time
	result     *models.ExecutionResult
	err        error
}

// dispatchBatch runs the ready tasks with at most MaxParallel in flight, then
// applies every outcome serially in declaration order. It returns the
// workflow-terminating failure, if any, separately from invariant errors.
func (r *run) dispatchBatch(ctx context.Context, ready []*models.Task) (error, error) {
	dispatched := make([]models.Task, len(ready))

	for i, task := range ready {
		if err := r.graph.MarkRunning(task.ID, r.engine.now()); err != nil {
			return nil, err
		}

		dispatched[i] = *task
	}

	snapshot := r.store.Snapshot()
	outcomes := make([]*attemptOutcome, len(dispatched))
	jobs := make(chan int)
	workers := min(r.cfg.MaxParallel, len(dispatched))

	var wg sync.WaitGroup

	// A fixed pool pulling indices in declaration order keeps dispatch
	// deterministic: strictly sequential when MaxParallel is 1.
	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				outcomes[i] = r.engine.executeTask(ctx, dispatched[i], snapshot, r.cfg)
			}
		}()
	}

	for i := range dispatched {
		jobs <- i
	}

	close(jobs)
	wg.Wait()

	var workflowErr error

	for _, outcome := range outcomes {
		if outcome.err == nil {
			if err := r.applySuccess(outcome); err != nil {
				return nil, err
			}

			continue
		}

		failWorkflow, err := r.applyFailure(ctx, outcome)
		if err != nil {
			return nil, err
		}

		if failWorkflow != nil && workflowErr == nil {
			workflowErr = failWorkflow
		}
	}

	return workflowErr, nil
}

func (r *run) applySuccess(outcome *attemptOutcome) error {
	var output any
	if outcome.result != nil {
		output = outcome.result.Output
	}

	if err := r.graph.MarkCompleted(outcome.taskID, output, outcome.finishedAt); err != nil {
		return err
	}

	task, err := r.graph.Task(outcome.taskID)
	if err != nil {
		return err
	}

	r.store.Set("task_"+outcome.taskID+"_result", output, outcome.taskID)

	if outcome.result != nil {
		for _, write := range outcome.result.MemoryWrites {
			r.store.Set(write.Key, write.Value, outcome.taskID)
		}
	}

	r.store.Append(models.ExecutionRecord{
		TaskID:     outcome.taskID,
		Attempt:    task.AttemptCount,
		StartedAt:  outcome.startedAt,
		FinishedAt: outcome.finishedAt,
		Outcome:    models.OutcomeSuccess,
	})

	r.logger.Info("Task completed",
		"task_id", outcome.taskID,
		"attempt", task.AttemptCount,
		"duration", outcome.finishedAt.Sub(outcome.startedAt),
	)

	return nil
}

// applyFailure records the failed attempt and routes it through the retry
// policy. A fail_workflow verdict comes back as the first return value.
func (r *run) applyFailure(ctx context.Context, outcome *attemptOutcome) (error, error) {
	if err := r.graph.MarkFailed(outcome.taskID, outcome.err, outcome.finishedAt); err != nil {
		return nil, err
	}

	task, err := r.graph.Task(outcome.taskID)
	if err != nil {
		return nil, err
	}

	attempt := task.AttemptCount

	r.store.Append(models.ExecutionRecord{
		TaskID:     outcome.taskID,
		Attempt:    attempt,
		StartedAt:  outcome.startedAt,
		FinishedAt: outcome.finishedAt,
		Outcome:    models.OutcomeFailure,
		Error:      outcome.err.Error(),
	})

	decision := r.policy.Decide(ctx, task, attempt, r.cfg.MaxRetries, outcome.err, r.engine.decider)

	switch decision.Action {
	case retry.ActionRetry:
		delay := r.policy.Backoff(attempt)
		if err := r.graph.MarkRetryPending(outcome.taskID, r.engine.now().Add(delay), decision.ModifiedConfig); err != nil {
			return nil, err
		}

		r.logger.Warn("Task failed, retry scheduled",
			"task_id", outcome.taskID,
			"attempt", attempt,
			"delay", delay,
			"error", outcome.err,
		)

		return nil, nil
	case retry.ActionSkip:
		if err := r.graph.MarkSkipped(outcome.taskID); err != nil {
			return nil, err
		}

		r.store.Append(models.ExecutionRecord{
			TaskID:     outcome.taskID,
			Attempt:    attempt,
			StartedAt:  outcome.finishedAt,
			FinishedAt: outcome.finishedAt,
			Outcome:    models.OutcomeSkipped,
			Error:      decision.Reason,
		})

		r.logger.Warn("Task skipped",
			"task_id", outcome.taskID,
			"attempt", attempt,
			"reason", decision.Reason,
		)

		return nil, nil
	default:
		return &RetryExhaustedError{
			TaskID:   outcome.taskID,
			Attempts: attempt,
			Reason:   decision.Reason,
			Err:      outcome.err,
		}, nil
	}
}

// executeTask runs one attempt on an executor goroutine. It reads only its
// arguments and never touches run state.
func (e *Engine) executeTask(ctx context.Context, task models.Task, snapshot models.MemorySnapshot, cfg models.Config) *attemptOutcome {
	outcome := &attemptOutcome{taskID: task.ID, startedAt: e.now()}

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "task.attempt",
			attribute.String(otelhelper.TaskIDKey, task.ID),
			attribute.String(otelhelper.ActionTypeKey, task.ActionType),
			attribute.Int(otelhelper.AttemptKey, task.AttemptCount+1),
		)

		defer func() {
			if outcome.err != nil {
				otelhelper.SetError(span, outcome.err)
			}

			span.End()
		}()
	}

	executor, err := e.registry.CreateExecutor(task.ActionType, task.ActionConfig)
	if err != nil {
		outcome.err = err
		outcome.finishedAt = e.now()

		return outcome
	}

	taskCtx, cancel := context.WithTimeout(ctx, cfg.TaskTimeout)
	defer cancel()

	result, err := executor.Execute(taskCtx, task.ActionConfig, snapshot)
	outcome.finishedAt = e.now()
	outcome.result = result
	outcome.err = err

	return outcome
}

func (r *run) setStatus(status models.WorkflowStatus) {
	r.ctx.Status = status
	r.ctx.UpdatedAt = r.engine.now()
}

func (r *run) fail(reason error) {
	r.ctx.Status = models.WorkflowStatusFailed
	r.ctx.FailureReason = reason.Error()
	r.ctx.UpdatedAt = r.engine.now()
	r.logger.Error("Workflow failed", "reason", reason)
}

func (r *run) result() *models.WorkflowResult {
	result := &models.WorkflowResult{
		Context: r.ctx,
		Memory:  r.store.Contents(),
		Audit:   r.store.Audit(),
		History: r.store.History(),
	}

	if r.graph != nil {
		result.Tasks = r.graph.Tasks()
	}

	return result
}

func (e *Engine) persistSnapshot(ctx context.Context, result *models.WorkflowResult) {
	if e.persistence == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := e.persistence.SaveSnapshot(saveCtx, result.Snapshot()); err != nil {
		e.logger.Error("Failed to persist workflow snapshot",
			"workflow_id", result.Context.ID,
			"error", err,
		)
	}
}

// sleepUntil blocks until t or cancellation, whichever comes first.
func (e *Engine) sleepUntil(ctx context.Context, t time.Time) error {
	delay := t.Sub(e.now())
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func normalizeConfig(cfg *models.Config) {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}

	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 60 * time.Second
	}

	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}

	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
}
