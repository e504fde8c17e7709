// Package graph holds the task graph: tasks, their dependency edges, the
// per-task state machine, and the computation of the ready set.
//
// The graph is mutated only by the scheduler's result-handling step. It is not
// safe for concurrent mutation; the single-writer rule lives in pkg/engine.
package graph

import (
	"fmt"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
)

// allowedTransitions is the task state machine. completed and skipped are
// final; failed is final unless the retry policy moves it on.
var allowedTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusPending:      {models.TaskStatusReady},
	models.TaskStatusReady:        {models.TaskStatusRunning},
	models.TaskStatusRunning:      {models.TaskStatusCompleted, models.TaskStatusFailed},
	models.TaskStatusFailed:       {models.TaskStatusRetryPending, models.TaskStatusSkipped},
	models.TaskStatusRetryPending: {models.TaskStatusPending},
}

// TaskGraph owns every task of one workflow run. Tasks are referenced by id
// everywhere else; edges are id-to-id.
type TaskGraph struct {
	tasks map[string]*models.Task
	order []string // declaration order, drives deterministic dispatch
}

// New builds a graph from planner output. It fails with
// *UnknownDependencyError when an edge points at a missing task and with
// *CycleError when no topological ordering covers all tasks (self-references
// are cycles of length one).
func New(decls []models.TaskDeclaration) (*TaskGraph, error) {
	g := &TaskGraph{
		tasks: make(map[string]*models.Task, len(decls)),
		order: make([]string, 0, len(decls)),
	}

	for _, d := range decls {
		if d.ID == "" {
			return nil, fmt.Errorf("task declaration with empty id")
		}

		if _, exists := g.tasks[d.ID]; exists {
			return nil, fmt.Errorf("duplicate task id %q", d.ID)
		}

		g.tasks[d.ID] = &models.Task{
			ID:           d.ID,
			Name:         d.Name,
			ActionType:   d.ActionType,
			ActionConfig: d.ActionConfig,
			Dependencies: append([]string(nil), d.Dependencies...),
			NonCritical:  d.NonCritical,
			Status:       models.TaskStatusPending,
		}
		g.order = append(g.order, d.ID)
	}

	for _, id := range g.order {
		for _, dep := range g.tasks[id].Dependencies {
			if _, ok := g.tasks[dep]; !ok {
				return nil, &UnknownDependencyError{TaskID: id, Dependency: dep}
			}
		}
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	return g, nil
}

// checkAcyclic runs Kahn's algorithm over the declared edges. If the produced
// linear order does not cover every task, the leftovers form a cycle.
func (g *TaskGraph) checkAcyclic() error {
	indegree := make(map[string]int, len(g.tasks))
	dependents := make(map[string][]string, len(g.tasks))

	for _, id := range g.order {
		indegree[id] = len(g.tasks[id].Dependencies)
		for _, dep := range g.tasks[id].Dependencies {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	queue := make([]string, 0, len(g.tasks))
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited == len(g.tasks) {
		return nil
	}

	remaining := make([]string, 0, len(g.tasks)-visited)
	for _, id := range g.order {
		if indegree[id] > 0 {
			remaining = append(remaining, id)
		}
	}

	return &CycleError{Remaining: remaining}
}

// ReadyTasks returns every pending task whose dependencies are all completed,
// in declaration order, and transitions them to ready so they are not
// returned twice. A skipped or failed dependency never satisfies readiness.
func (g *TaskGraph) ReadyTasks() []*models.Task {
	var ready []*models.Task

	for _, id := range g.order {
		task := g.tasks[id]
		if task.Status != models.TaskStatusPending {
			continue
		}

		if !g.dependenciesCompleted(task) {
			continue
		}

		task.Status = models.TaskStatusReady
		ready = append(ready, task)
	}

	return ready
}

func (g *TaskGraph) dependenciesCompleted(task *models.Task) bool {
	for _, dep := range task.Dependencies {
		if g.tasks[dep].Status != models.TaskStatusCompleted {
			return false
		}
	}

	return true
}

// ReleaseDueRetries moves retry_pending tasks whose backoff gate has passed
// back to pending. It returns how many tasks were released.
func (g *TaskGraph) ReleaseDueRetries(now time.Time) int {
	released := 0

	for _, id := range g.order {
		task := g.tasks[id]
		if task.Status == models.TaskStatusRetryPending && !now.Before(task.NotBefore) {
			task.Status = models.TaskStatusPending
			task.NotBefore = time.Time{}
			released++
		}
	}

	return released
}

// NextRetryAt returns the earliest backoff gate among retry_pending tasks, so
// the scheduler can wait instead of spinning. ok is false when none is
// pending.
func (g *TaskGraph) NextRetryAt() (time.Time, bool) {
	var earliest time.Time

	found := false
	for _, id := range g.order {
		task := g.tasks[id]
		if task.Status != models.TaskStatusRetryPending {
			continue
		}

		if !found || task.NotBefore.Before(earliest) {
			earliest = task.NotBefore
			found = true
		}
	}

	return earliest, found
}

func (g *TaskGraph) transition(task *models.Task, to models.TaskStatus) error {
	for _, allowed := range allowedTransitions[task.Status] {
		if allowed == to {
			task.Status = to
			return nil
		}
	}

	return &InvalidTransitionError{TaskID: task.ID, From: task.Status, To: to}
}

func (g *TaskGraph) task(id string) (*models.Task, error) {
	task, ok := g.tasks[id]
	if !ok {
		return nil, fmt.Errorf("unknown task %q", id)
	}

	return task, nil
}

// MarkRunning transitions a ready task to running and stamps the attempt
// start.
func (g *TaskGraph) MarkRunning(id string, startedAt time.Time) error {
	task, err := g.task(id)
	if err != nil {
		return err
	}

	if err := g.transition(task, models.TaskStatusRunning); err != nil {
		return err
	}

	started := startedAt
	task.StartedAt = &started
	task.FinishedAt = nil

	return nil
}

// MarkCompleted finalizes a running task with its result, counting the
// attempt.
func (g *TaskGraph) MarkCompleted(id string, result any, finishedAt time.Time) error {
	task, err := g.task(id)
	if err != nil {
		return err
	}

	if err := g.transition(task, models.TaskStatusCompleted); err != nil {
		return err
	}

	finished := finishedAt
	task.AttemptCount++
	task.Result = result
	task.Error = ""
	task.FinishedAt = &finished

	return nil
}

// MarkFailed records a failed attempt, incrementing the attempt count.
func (g *TaskGraph) MarkFailed(id string, taskErr error, finishedAt time.Time) error {
	task, err := g.task(id)
	if err != nil {
		return err
	}

	if err := g.transition(task, models.TaskStatusFailed); err != nil {
		return err
	}

	finished := finishedAt
	task.AttemptCount++
	task.Error = taskErr.Error()
	task.FinishedAt = &finished

	return nil
}

// MarkRetryPending parks a failed task behind a backoff gate, optionally
// swapping in a recovery-modified action config.
func (g *TaskGraph) MarkRetryPending(id string, notBefore time.Time, modifiedConfig map[string]any) error {
	task, err := g.task(id)
	if err != nil {
		return err
	}

	if err := g.transition(task, models.TaskStatusRetryPending); err != nil {
		return err
	}

	task.NotBefore = notBefore
	if modifiedConfig != nil {
		task.ActionConfig = modifiedConfig
	}

	return nil
}

// MarkSkipped abandons a failed task.
func (g *TaskGraph) MarkSkipped(id string) error {
	task, err := g.task(id)
	if err != nil {
		return err
	}

	return g.transition(task, models.TaskStatusSkipped)
}

// Task returns a copy of the task with the given id.
func (g *TaskGraph) Task(id string) (models.Task, error) {
	task, err := g.task(id)
	if err != nil {
		return models.Task{}, err
	}

	return *task, nil
}

// Tasks returns copies of every task in declaration order.
func (g *TaskGraph) Tasks() []models.Task {
	out := make([]models.Task, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.tasks[id])
	}

	return out
}

// DeclarationIndex returns the position of the task in the original plan.
// It is the tie-break for simultaneous memory writes: the later-declared
// task's write wins.
func (g *TaskGraph) DeclarationIndex(id string) int {
	for i, candidate := range g.order {
		if candidate == id {
			return i
		}
	}

	return -1
}

// Len returns the number of tasks in the graph.
func (g *TaskGraph) Len() int {
	return len(g.tasks)
}

// IsTerminal reports whether every task is in a final status.
func (g *TaskGraph) IsTerminal() bool {
	for _, task := range g.tasks {
		if !task.Status.IsFinal() {
			return false
		}
	}

	return true
}

// Unreachable returns, in declaration order, the ids of non-final tasks whose
// ancestor chain contains a skipped or failed task. They can never become
// ready; the scheduler surfaces them in its deadlock accounting instead of
// ignoring them silently.
func (g *TaskGraph) Unreachable() []string {
	var blocked []string

	for _, id := range g.order {
		task := g.tasks[id]
		if task.Status.IsFinal() {
			continue
		}

		if g.hasDeadAncestor(task, make(map[string]bool)) {
			blocked = append(blocked, id)
		}
	}

	return blocked
}

func (g *TaskGraph) hasDeadAncestor(task *models.Task, seen map[string]bool) bool {
	for _, dep := range task.Dependencies {
		if seen[dep] {
			continue
		}
		seen[dep] = true

		parent := g.tasks[dep]
		switch parent.Status {
		case models.TaskStatusSkipped, models.TaskStatusFailed:
			return true
		}

		if g.hasDeadAncestor(parent, seen) {
			return true
		}
	}

	return false
}
