package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() *Policy {
	return NewPolicy(models.Config{
		BaseDelay: time.Second,
		MaxDelay:  30 * time.Second,
	})
}

func TestDecide_DefaultRetryThenFail(t *testing.T) {
	policy := testPolicy()
	task := models.Task{ID: "t1"}
	boom := errors.New("boom")

	// max_retries = 2: attempts 1 and 2 retry, attempt 3 fails the workflow.
	assert.Equal(t, ActionRetry, policy.Decide(context.Background(), task, 1, 2, boom, nil).Action)
	assert.Equal(t, ActionRetry, policy.Decide(context.Background(), task, 2, 2, boom, nil).Action)
	assert.Equal(t, ActionFailWorkflow, policy.Decide(context.Background(), task, 3, 2, boom, nil).Action)
}

func TestDecide_NonCriticalSkips(t *testing.T) {
	policy := testPolicy()
	task := models.Task{ID: "t1", NonCritical: true}

	decision := policy.Decide(context.Background(), task, 4, 3, errors.New("boom"), nil)

	assert.Equal(t, ActionSkip, decision.Action)
}

type fixedDecider struct {
	decision Decision
	err      error
}

func (d *fixedDecider) Decide(_ context.Context, _ models.Task, _ error, _ int) (Decision, error) {
	return d.decision, d.err
}

func TestDecide_ExternalDeciderWins(t *testing.T) {
	policy := testPolicy()
	decider := &fixedDecider{decision: Decision{
		Action:         ActionRetry,
		ModifiedConfig: map[string]any{"url": "http://fallback"},
	}}

	// Attempt count is past exhaustion; the decider overrides anyway.
	decision := policy.Decide(context.Background(), models.Task{ID: "t1"}, 10, 2, errors.New("boom"), decider)

	require.Equal(t, ActionRetry, decision.Action)
	assert.Equal(t, "http://fallback", decision.ModifiedConfig["url"])
}

func TestDecide_DeciderErrorFallsBack(t *testing.T) {
	policy := testPolicy()
	decider := &fixedDecider{err: errors.New("llm unreachable")}

	decision := policy.Decide(context.Background(), models.Task{ID: "t1"}, 1, 3, errors.New("boom"), decider)

	assert.Equal(t, ActionRetry, decision.Action)
}

func TestDecide_UnrecognizedVerdictFallsBack(t *testing.T) {
	policy := testPolicy()
	decider := &fixedDecider{decision: Decision{Action: Action("reboot")}}

	decision := policy.Decide(context.Background(), models.Task{ID: "t1"}, 5, 2, errors.New("boom"), decider)

	assert.Equal(t, ActionFailWorkflow, decision.Action)
}

func TestBackoff_ExponentialWithCap(t *testing.T) {
	policy := &Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	assert.Equal(t, time.Second, policy.Backoff(1))
	assert.Equal(t, 2*time.Second, policy.Backoff(2))
	assert.Equal(t, 4*time.Second, policy.Backoff(3))
	assert.Equal(t, 8*time.Second, policy.Backoff(4))
	assert.Equal(t, 10*time.Second, policy.Backoff(5))
	assert.Equal(t, 10*time.Second, policy.Backoff(50))
}

func TestBackoff_MonotoneWithoutJitter(t *testing.T) {
	policy := &Policy{BaseDelay: 250 * time.Millisecond, MaxDelay: time.Minute}

	previous := time.Duration(0)
	for attempt := 1; attempt <= 12; attempt++ {
		delay := policy.Backoff(attempt)
		assert.GreaterOrEqual(t, delay, previous, "attempt %d", attempt)
		previous = delay
	}
}

func TestBackoff_JitterBounds(t *testing.T) {
	policy := &Policy{
		BaseDelay: time.Second,
		MaxDelay:  10 * time.Second,
		Jitter:    true,
		rng:       func(n int64) int64 { return n - 1 }, // worst case draw
	}

	assert.Equal(t, 4*time.Second, policy.Backoff(3))

	policy.rng = func(int64) int64 { return 0 }
	assert.Equal(t, time.Duration(0), policy.Backoff(3))
}
