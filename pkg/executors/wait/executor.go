// Package wait provides the wait executor: a delay between dependent tasks.
package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
)

// Executor sleeps for the configured duration, honoring cancellation and the
// per-task timeout.
type Executor struct {
	Duration time.Duration
}

// New builds an executor from an action config. Duration is given in seconds
// (fractions allowed) or as a Go duration string.
func New(config map[string]any) (*Executor, error) {
	switch raw := config["duration"].(type) {
	case float64:
		if raw < 0 {
			return nil, fmt.Errorf("wait duration must be non-negative")
		}

		return &Executor{Duration: time.Duration(raw * float64(time.Second))}, nil
	case int:
		if raw < 0 {
			return nil, fmt.Errorf("wait duration must be non-negative")
		}

		return &Executor{Duration: time.Duration(raw) * time.Second}, nil
	case string:
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid wait duration %q: %w", raw, err)
		}

		return &Executor{Duration: parsed}, nil
	case nil:
		return &Executor{Duration: time.Second}, nil
	default:
		return nil, fmt.Errorf("invalid wait duration type %T", raw)
	}
}

// Execute waits out the duration.
func (e *Executor) Execute(ctx context.Context, _ map[string]any, _ models.MemorySnapshot) (*models.ExecutionResult, error) {
	timer := time.NewTimer(e.Duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return &models.ExecutionResult{
		Output: map[string]any{"waited_seconds": e.Duration.Seconds()},
	}, nil
}
