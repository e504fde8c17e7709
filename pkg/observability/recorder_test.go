package observability

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalflow/goalflow/pkg/models"
)

func terminalResult() *models.WorkflowResult {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	return &models.WorkflowResult{
		Context: models.WorkflowContext{
			ID:     "wf-test",
			Goal:   "process the nightly batch",
			Status: models.WorkflowStatusCompleted,
		},
		Tasks: []models.Task{
			{ID: "fetch", Status: models.TaskStatusCompleted, AttemptCount: 1},
			{ID: "clean", Status: models.TaskStatusCompleted, AttemptCount: 3},
			{ID: "notify", Status: models.TaskStatusSkipped, AttemptCount: 1},
		},
		History: []models.ExecutionRecord{
			{TaskID: "fetch", Attempt: 1, StartedAt: base, FinishedAt: base.Add(100 * time.Millisecond), Outcome: models.OutcomeSuccess},
			{TaskID: "clean", Attempt: 1, StartedAt: base, FinishedAt: base.Add(50 * time.Millisecond), Outcome: models.OutcomeFailure, Error: "boom"},
			{TaskID: "clean", Attempt: 2, StartedAt: base, FinishedAt: base.Add(50 * time.Millisecond), Outcome: models.OutcomeFailure, Error: "boom"},
			{TaskID: "clean", Attempt: 3, StartedAt: base, FinishedAt: base.Add(200 * time.Millisecond), Outcome: models.OutcomeSuccess},
			{TaskID: "notify", Attempt: 1, StartedAt: base, FinishedAt: base.Add(10 * time.Millisecond), Outcome: models.OutcomeFailure, Error: "unreachable"},
			{TaskID: "notify", Attempt: 1, StartedAt: base, FinishedAt: base, Outcome: models.OutcomeSkipped, Error: "retries exhausted on non-critical task"},
		},
	}
}

func TestCollectComputesMetrics(t *testing.T) {
	recorder := NewRecorder(slog.New(slog.DiscardHandler))

	m := recorder.Collect(terminalResult())

	assert.Equal(t, "wf-test", m.WorkflowID)
	assert.Equal(t, models.WorkflowStatusCompleted, m.Status)

	assert.Equal(t, 3, m.TotalTasks)
	assert.Equal(t, 2, m.Completed)
	assert.Equal(t, 0, m.Failed)
	assert.Equal(t, 1, m.Skipped)
	assert.Equal(t, 2, m.Retries)

	assert.InDelta(t, 2.0/3.0, m.SuccessRate, 1e-9)
	assert.Equal(t, 410*time.Millisecond, m.TotalDuration)

	require.Len(t, m.Tasks, 3)
	assert.Equal(t, "fetch", m.Tasks[0].TaskID)
	assert.Equal(t, 100*time.Millisecond, m.Tasks[0].Duration)
	assert.Equal(t, 300*time.Millisecond, m.Tasks[1].Duration)
	assert.Equal(t, 3, m.Tasks[1].Attempts)
}

func TestCollectIsIdempotent(t *testing.T) {
	recorder := NewRecorder(slog.New(slog.DiscardHandler))
	result := terminalResult()

	first := recorder.Collect(result)
	second := recorder.Collect(result)

	assert.Equal(t, first, second)
}

func TestCollectEmptyResult(t *testing.T) {
	recorder := NewRecorder(slog.New(slog.DiscardHandler))

	m := recorder.Collect(&models.WorkflowResult{
		Context: models.WorkflowContext{ID: "wf-empty", Status: models.WorkflowStatusFailed, FailureReason: "planning failed"},
	})

	assert.Equal(t, 0, m.TotalTasks)
	assert.Equal(t, 0.0, m.SuccessRate)
}

func TestSummaryMentionsEveryTask(t *testing.T) {
	recorder := NewRecorder(slog.New(slog.DiscardHandler))

	summary := recorder.Collect(terminalResult()).Summary()

	assert.Contains(t, summary, "Workflow wf-test (completed)")
	assert.Contains(t, summary, "3 total, 2 completed, 0 failed, 1 skipped")
	assert.Contains(t, summary, "success rate: 66.7%")
	assert.Contains(t, summary, "fetch")
	assert.Contains(t, summary, "clean")
	assert.Contains(t, summary, "notify")
}
