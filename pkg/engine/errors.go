package engine

import (
	"fmt"
	"strings"
)

// PlanningError indicates the planner failed or produced an invalid plan.
// The workflow terminates as failed without dispatching a single task.
type PlanningError struct {
	Goal string
	Err  error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed for goal %q: %v", e.Goal, e.Err)
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// DeadlockError indicates no task is ready, none will ever become ready, and
// the graph is not terminal. TaskIDs lists the blocked tasks in declaration
// order.
type DeadlockError struct {
	TaskIDs []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("no runnable tasks remain; blocked: %s", strings.Join(e.TaskIDs, ", "))
}

// RetryExhaustedError is the terminal failure reason when a critical task ran
// out of recovery options.
type RetryExhaustedError struct {
	TaskID   string
	Attempts int
	Reason   string
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("task %s failed after %d attempts (%s): %v", e.TaskID, e.Attempts, e.Reason, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}
