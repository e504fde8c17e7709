// Package observability derives run metrics from a terminal workflow result.
// The recorder is pure over the result: collecting metrics twice yields the
// same numbers and never mutates the run.
package observability

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
)

// TaskMetrics aggregates every attempt of one task.
type TaskMetrics struct {
	TaskID   string
	Attempts int
	Duration time.Duration // wall-clock time summed across attempts
	Outcome  models.TaskStatus
}

// Metrics is the computed report for one workflow run.
type Metrics struct {
	WorkflowID    string
	Goal          string
	Status        models.WorkflowStatus
	FailureReason string

	TotalTasks int
	Completed  int
	Failed     int
	Skipped    int
	Retries    int

	SuccessRate   float64 // completed / (completed + failed + skipped)
	TotalDuration time.Duration

	Tasks []TaskMetrics // declaration order
}

// Recorder computes metrics and renders run summaries.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Collect computes metrics from a terminal result.
func (r *Recorder) Collect(result *models.WorkflowResult) *Metrics {
	m := &Metrics{
		WorkflowID:    result.Context.ID,
		Goal:          result.Context.Goal,
		Status:        result.Context.Status,
		FailureReason: result.Context.FailureReason,
		TotalTasks:    len(result.Tasks),
	}

	durations := make(map[string]time.Duration, len(result.Tasks))
	attempts := make(map[string]int, len(result.Tasks))

	for _, record := range result.History {
		if record.Outcome == models.OutcomeSkipped {
			continue // abandonment marker, not an attempt
		}

		durations[record.TaskID] += record.Duration()
		m.TotalDuration += record.Duration()

		if record.Attempt > attempts[record.TaskID] {
			attempts[record.TaskID] = record.Attempt
		}
	}

	for _, task := range result.Tasks {
		switch task.Status {
		case models.TaskStatusCompleted:
			m.Completed++
		case models.TaskStatusFailed:
			m.Failed++
		case models.TaskStatusSkipped:
			m.Skipped++
		}

		if attempts[task.ID] > 1 {
			m.Retries += attempts[task.ID] - 1
		}

		m.Tasks = append(m.Tasks, TaskMetrics{
			TaskID:   task.ID,
			Attempts: attempts[task.ID],
			Duration: durations[task.ID],
			Outcome:  task.Status,
		})
	}

	if final := m.Completed + m.Failed + m.Skipped; final > 0 {
		m.SuccessRate = float64(m.Completed) / float64(final)
	}

	return m
}

// LogSummary emits the metrics through the structured logger.
func (r *Recorder) LogSummary(m *Metrics) {
	r.logger.Info("Workflow summary",
		"workflow_id", m.WorkflowID,
		"status", m.Status,
		"tasks", m.TotalTasks,
		"completed", m.Completed,
		"failed", m.Failed,
		"skipped", m.Skipped,
		"retries", m.Retries,
		"success_rate", m.SuccessRate,
		"total_duration", m.TotalDuration,
	)
}

// Summary renders a human-readable report for the CLI.
func (m *Metrics) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Workflow %s (%s)\n", m.WorkflowID, m.Status)

	if m.Goal != "" {
		fmt.Fprintf(&b, "  goal:         %s\n", m.Goal)
	}

	if m.FailureReason != "" {
		fmt.Fprintf(&b, "  failure:      %s\n", m.FailureReason)
	}

	fmt.Fprintf(&b, "  tasks:        %d total, %d completed, %d failed, %d skipped\n",
		m.TotalTasks, m.Completed, m.Failed, m.Skipped)
	fmt.Fprintf(&b, "  success rate: %.1f%%\n", m.SuccessRate*100)
	fmt.Fprintf(&b, "  retries:      %d\n", m.Retries)
	fmt.Fprintf(&b, "  exec time:    %s\n", m.TotalDuration.Round(time.Millisecond))

	if len(m.Tasks) > 0 {
		b.WriteString("  task durations:\n")

		for _, task := range m.Tasks {
			fmt.Fprintf(&b, "    %-24s %s (%d attempt(s), %s)\n",
				task.TaskID, task.Duration.Round(time.Millisecond), task.Attempts, task.Outcome)
		}
	}

	return b.String()
}
