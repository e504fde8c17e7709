package transform

import (
	"context"
	"testing"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_OverSnapshot(t *testing.T) {
	executor, err := New(map[string]any{
		"expression": "{{.task_fetch_result.status}}",
		"memory_key": "status",
	})
	require.NoError(t, err)

	mem := models.MemorySnapshot{
		"task_fetch_result": map[string]any{"status": "ok"},
	}

	result, err := executor.Execute(context.Background(), nil, mem)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Output)

	require.Len(t, result.MemoryWrites, 1)
	assert.Equal(t, "status", result.MemoryWrites[0].Key)
	assert.Equal(t, "ok", result.MemoryWrites[0].Value)
}

func TestExecute_WithInputSelector(t *testing.T) {
	executor, err := New(map[string]any{
		"input":      "{{json .users_response}}",
		"expression": `{"total": {{len .body}}}`,
	})
	require.NoError(t, err)

	mem := models.MemorySnapshot{
		"users_response": map[string]any{"body": []any{"ada", "grace"}},
	}

	result, err := executor.Execute(context.Background(), nil, mem)
	require.NoError(t, err)

	output, ok := result.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), output["total"])
}

func TestExecute_BadExpressionFails(t *testing.T) {
	executor, err := New(map[string]any{"expression": "{{.missing.deeply}}"})
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), nil, models.MemorySnapshot{})
	assert.Error(t, err)
}

func TestNew_RequiresExpression(t *testing.T) {
	_, err := New(map[string]any{})

	assert.Error(t, err)
}
