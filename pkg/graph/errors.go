package graph

import (
	"fmt"
	"strings"

	"github.com/goalflow/goalflow/pkg/models"
)

// CycleError indicates the declared dependency relation is not a DAG.
// Construction fails and no task is ever dispatched.
type CycleError struct {
	// Remaining holds the task ids a topological ordering could not cover.
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving tasks [%s]", strings.Join(e.Remaining, ", "))
}

// UnknownDependencyError indicates a declaration references a task id that
// does not exist in the same plan.
type UnknownDependencyError struct {
	TaskID     string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on unknown task %q", e.TaskID, e.Dependency)
}

// InvalidTransitionError indicates a status transition the task state machine
// does not permit. It is an invariant violation: a bug in the scheduler, never
// recovered.
type InvalidTransitionError struct {
	TaskID string
	From   models.TaskStatus
	To     models.TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for task %q: %s -> %s", e.TaskID, e.From, e.To)
}
