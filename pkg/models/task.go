package models

import "time"

// TaskStatus represents the lifecycle state of a single task.
type TaskStatus string

const (
	TaskStatusPending      TaskStatus = "pending"       // Waiting on dependencies
	TaskStatusReady        TaskStatus = "ready"         // Eligible, handed to the scheduler
	TaskStatusRunning      TaskStatus = "running"       // Executor invocation in flight
	TaskStatusCompleted    TaskStatus = "completed"     // Final, result present
	TaskStatusFailed       TaskStatus = "failed"        // Last attempt failed
	TaskStatusRetryPending TaskStatus = "retry_pending" // Failed, waiting out the backoff gate
	TaskStatusSkipped      TaskStatus = "skipped"       // Final, abandoned by policy
)

// IsFinal reports whether the status ends the task's lifecycle. A failed task
// is only left in that status once the retry policy has declined to recover
// it, so by the time anyone asks it is final.
func (s TaskStatus) IsFinal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusSkipped
}

// TaskDeclaration is a planner-produced unit of work, not yet owned by a
// graph. Dependencies are ids, never object references.
type TaskDeclaration struct {
	ID           string         `json:"id"            yaml:"id"            validate:"required"`
	Name         string         `json:"name"          yaml:"name"`
	ActionType   string         `json:"action_type"   yaml:"action_type"   validate:"required"`
	ActionConfig map[string]any `json:"action_config" yaml:"action_config"`
	Dependencies []string       `json:"dependencies"  yaml:"dependencies"`
	NonCritical  bool           `json:"non_critical"  yaml:"non_critical"`
}

// Task is a scheduled unit of work owned exclusively by the task graph.
type Task struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ActionType   string         `json:"action_type"`
	ActionConfig map[string]any `json:"action_config"`
	Dependencies []string       `json:"dependencies"`
	NonCritical  bool           `json:"non_critical,omitempty"`
	Status       TaskStatus     `json:"status"`
	AttemptCount int            `json:"attempt_count"`
	Result       any            `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	NotBefore    time.Time      `json:"not_before,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

// Outcome classifies a single execution attempt in the history.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// ExecutionRecord is an immutable history entry. Records are appended once,
// complete, after the attempt resolves; the history is never mutated or
// reordered.
type ExecutionRecord struct {
	TaskID     string    `json:"task_id"`
	Attempt    int       `json:"attempt"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    Outcome   `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// Duration is the wall-clock time of the attempt.
func (r ExecutionRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// MemoryAudit attributes a memory mutation to the task that performed it.
type MemoryAudit struct {
	Key    string    `json:"key"`
	TaskID string    `json:"task_id"`
	At     time.Time `json:"at"`
}

// MemorySnapshot is the read-only view handed to in-flight executors.
// It is a copy: writes applied after the snapshot was taken are invisible.
type MemorySnapshot map[string]any

// MemoryWrite is a key/value pair an executor wants applied to shared memory.
// Executors never touch memory directly; the scheduler applies writes
// serially.
type MemoryWrite struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ExecutionResult is the successful outcome of one executor invocation.
type ExecutionResult struct {
	Output       any           `json:"output"`
	MemoryWrites []MemoryWrite `json:"memory_writes,omitempty"`
}
