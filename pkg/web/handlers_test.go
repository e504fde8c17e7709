package web_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/persistence/file"
	"github.com/goalflow/goalflow/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	snapshots := []*models.Snapshot{
		{
			Context: models.WorkflowContext{
				ID: "wf-done", Goal: "archive logs",
				Status:    models.WorkflowStatusCompleted,
				CreatedAt: now, UpdatedAt: now.Add(time.Minute),
			},
			Tasks: []models.Task{
				{ID: "archive", ActionType: "file_operation", Status: models.TaskStatusCompleted},
			},
			Memory: map[string]any{"task_archive_result": "ok"},
			History: []models.ExecutionRecord{
				{TaskID: "archive", Attempt: 1, StartedAt: now, FinishedAt: now.Add(time.Second), Outcome: models.OutcomeSuccess},
			},
		},
		{
			Context: models.WorkflowContext{
				ID: "wf-failed", Goal: "call flaky api",
				Status:        models.WorkflowStatusFailed,
				FailureReason: "task call failed after 3 attempts",
				CreatedAt:     now, UpdatedAt: now,
			},
		},
	}

	for _, snapshot := range snapshots {
		require.NoError(t, store.SaveSnapshot(context.Background(), snapshot))
	}

	handlers := web.NewAPIHandlers(store, slog.New(slog.DiscardHandler))
	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app
}

func doRequest(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)

	status, body := doRequest(t, app, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestGetWorkflowsListsSummaries(t *testing.T) {
	app := setupTestApp(t)

	status, body := doRequest(t, app, "/workflows/")
	require.Equal(t, http.StatusOK, status)

	var payload struct {
		Workflows []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Tasks  int    `json:"tasks"`
		} `json:"workflows"`
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, 2, payload.TotalCount)
	require.Len(t, payload.Workflows, 2)
	assert.Equal(t, "wf-done", payload.Workflows[0].ID)
	assert.Equal(t, 1, payload.Workflows[0].Tasks)
	assert.Equal(t, "failed", payload.Workflows[1].Status)
}

func TestGetWorkflowReturnsSnapshot(t *testing.T) {
	app := setupTestApp(t)

	status, body := doRequest(t, app, "/workflows/wf-done")
	require.Equal(t, http.StatusOK, status)

	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(body, &snapshot))

	assert.Equal(t, "wf-done", snapshot.Context.ID)
	assert.Equal(t, "ok", snapshot.Memory["task_archive_result"])
	require.Len(t, snapshot.Tasks, 1)
}

func TestGetWorkflowNotFound(t *testing.T) {
	app := setupTestApp(t)

	status, body := doRequest(t, app, "/workflows/absent")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "workflow not found")
}

func TestGetWorkflowHistory(t *testing.T) {
	app := setupTestApp(t)

	status, body := doRequest(t, app, "/workflows/wf-done/history")
	require.Equal(t, http.StatusOK, status)

	var payload struct {
		WorkflowID string                   `json:"workflow_id"`
		History    []models.ExecutionRecord `json:"history"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "wf-done", payload.WorkflowID)
	require.Len(t, payload.History, 1)
	assert.Equal(t, models.OutcomeSuccess, payload.History[0].Outcome)
}
