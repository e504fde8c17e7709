// Package persistence error types shared by every backend.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrSnapshotNotFound indicates no snapshot exists for the given workflow id.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotError wraps backend errors with the operation and workflow id.
type SnapshotError struct {
	Op         string // Operation being performed (e.g., "Save", "ByID", "List")
	WorkflowID string
	Err        error
}

func (e *SnapshotError) Error() string {
	if e.WorkflowID == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// Is matches other snapshot errors with the same operation and workflow id.
func (e *SnapshotError) Is(target error) bool {
	var other *SnapshotError
	if !errors.As(target, &other) {
		return false
	}

	return e.Op == other.Op && e.WorkflowID == other.WorkflowID
}

// NewSnapshotError builds a SnapshotError.
func NewSnapshotError(op, workflowID string, err error) *SnapshotError {
	return &SnapshotError{Op: op, WorkflowID: workflowID, Err: err}
}
