// Package retry decides what happens after a task attempt fails: retry behind
// a backoff gate, skip the task, or fail the whole workflow.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
)

// Action is the policy verdict for a failed task.
type Action string

const (
	ActionRetry        Action = "retry"
	ActionSkip         Action = "skip"
	ActionFailWorkflow Action = "fail_workflow"
)

// Decision carries the verdict plus, for retries, an optional replacement
// action config supplied by an external recovery decider.
type Decision struct {
	Action         Action
	Reason         string
	ModifiedConfig map[string]any
}

// Decider is the external recovery collaborator consulted before the default
// policy. Implementations may be LLM-backed; the core only enforces the
// resulting decision. A Decider error falls back to the default policy.
type Decider interface {
	Decide(ctx context.Context, task models.Task, taskErr error, attempt int) (Decision, error)
}

// Policy computes retry decisions and backoff delays. It is a pure decision
// function over the task snapshot and attempt count; it never sleeps.
type Policy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    bool

	// rng drives jitter. Overridable in tests for determinism.
	rng func(n int64) int64
}

// NewPolicy builds a policy from workflow configuration.
func NewPolicy(cfg models.Config) *Policy {
	return &Policy{
		BaseDelay: cfg.BaseDelay,
		MaxDelay:  cfg.MaxDelay,
		Jitter:    cfg.Jitter,
		rng:       rand.Int63n,
	}
}

// Decide maps a failed attempt to an action. The external decider, when
// present, is consulted first; an error or unrecognized verdict from it falls
// back to the default policy: retry while attempt <= maxRetries (so a task
// gets maxRetries retries on top of its initial attempt), then skip when the
// task is declared non-critical, otherwise fail the workflow.
func (p *Policy) Decide(ctx context.Context, task models.Task, attempt, maxRetries int, taskErr error, decider Decider) Decision {
	if decider != nil {
		decision, err := decider.Decide(ctx, task, taskErr, attempt)
		if err == nil {
			switch decision.Action {
			case ActionRetry, ActionSkip, ActionFailWorkflow:
				return decision
			}
		}
	}

	if attempt <= maxRetries {
		return Decision{Action: ActionRetry, Reason: "attempts remaining"}
	}

	if task.NonCritical {
		return Decision{Action: ActionSkip, Reason: "retries exhausted on non-critical task"}
	}

	return Decision{Action: ActionFailWorkflow, Reason: "retries exhausted"}
}

// Backoff returns the delay before attempt becomes eligible again:
// base * 2^(attempt-1), capped at MaxDelay. With Jitter enabled the delay is
// drawn uniformly from [0, delay] so independent tasks do not retry in
// lockstep. Without jitter the delay is monotonically non-decreasing in the
// attempt count.
func (p *Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter && delay > 0 {
		rng := p.rng
		if rng == nil {
			rng = rand.Int63n
		}

		delay = time.Duration(rng(int64(delay) + 1))
	}

	return delay
}
