// Package protocol defines the interfaces and contracts between the execution
// core and its pluggable collaborators.
package protocol

import (
	"context"

	"github.com/goalflow/goalflow/pkg/models"
)

// Executor performs the actual side effect for one action type. It receives a
// read-only memory snapshot and returns its desired memory writes as part of
// the result; it never mutates workflow state directly.
type Executor interface {
	Execute(ctx context.Context, config map[string]any, mem models.MemorySnapshot) (*models.ExecutionResult, error)
}

// ExecutorFactory creates executor instances for one action type and
// describes the configuration it accepts.
type ExecutorFactory interface {
	// Create builds an executor from an action config.
	Create(config map[string]any) (Executor, error)

	// ID returns the action type tag this factory serves.
	ID() string

	// Schema returns the JSON schema for the action config, or nil when the
	// config is free-form. The registry validates configs against it.
	Schema() map[string]any
}
