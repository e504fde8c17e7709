// Package models defines the core domain models for goal-driven task-graph execution.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow run.
type WorkflowStatus string

const (
	WorkflowStatusInitialized WorkflowStatus = "initialized" // Created, planner not yet invoked
	WorkflowStatusPlanning    WorkflowStatus = "planning"    // Planner producing the task list
	WorkflowStatusExecuting   WorkflowStatus = "executing"   // Scheduler loop in progress
	WorkflowStatusCompleted   WorkflowStatus = "completed"   // Terminal, every task completed or skipped
	WorkflowStatusFailed      WorkflowStatus = "failed"      // Terminal, carries FailureReason
)

// IsTerminal reports whether the workflow status is final.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed
}

// WorkflowContext is the per-run record mutated only by the scheduler.
// Status transitions only move forward: initialized -> planning -> executing
// -> completed | failed.
type WorkflowContext struct {
	ID            string         `json:"id"`
	Goal          string         `json:"goal"`
	Status        WorkflowStatus `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Config        Config         `json:"config"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Config carries the recognized workflow options. Metadata is an open mapping
// for options the core does not interpret.
type Config struct {
	MaxRetries   int            `json:"max_retries"`
	MaxParallel  int            `json:"max_parallel"`
	TaskTimeout  time.Duration  `json:"task_timeout"`
	BaseDelay    time.Duration  `json:"base_delay"`
	MaxDelay     time.Duration  `json:"max_delay"`
	Jitter       bool           `json:"jitter"`
	WorkflowType string         `json:"workflow_type,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// DefaultConfig returns the configuration used when the caller supplies none.
// MaxParallel of 1 keeps the backward-compatible sequential dispatch order.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		MaxParallel: 1,
		TaskTimeout: 60 * time.Second,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// WorkflowResult is what the run entrypoint hands back to the caller: the
// terminal context plus the full task set, memory contents, and history.
type WorkflowResult struct {
	Context WorkflowContext   `json:"context"`
	Tasks   []Task            `json:"tasks"`
	Memory  map[string]any    `json:"memory"`
	Audit   []MemoryAudit     `json:"memory_audit,omitempty"`
	History []ExecutionRecord `json:"history"`
}

// Snapshot converts the result into the schema-stable persisted form.
func (r *WorkflowResult) Snapshot() *Snapshot {
	return &Snapshot{
		Context: r.Context,
		Tasks:   r.Tasks,
		Memory:  r.Memory,
		Audit:   r.Audit,
		History: r.History,
	}
}

// Snapshot is the persisted record for inspection and resume tooling. It is a
// pure data structure so any storage backend can serialize it.
type Snapshot struct {
	Context WorkflowContext   `json:"context"`
	Tasks   []Task            `json:"tasks"`
	Memory  map[string]any    `json:"memory"`
	Audit   []MemoryAudit     `json:"memory_audit,omitempty"`
	History []ExecutionRecord `json:"history"`
}
