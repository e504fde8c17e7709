package template

import (
	"testing"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_String(t *testing.T) {
	out, err := Render("hello {{.name}}", map[string]any{"name": "world"})

	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestRender_JSONOutput(t *testing.T) {
	out, err := Render(`{"user": "{{.name}}", "active": true}`, map[string]any{"name": "ada"})

	require.NoError(t, err)

	structured, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", structured["user"])
	assert.Equal(t, true, structured["active"])
}

func TestRender_NumericCoercion(t *testing.T) {
	out, err := Render("{{.count}}", map[string]any{"count": 42})

	require.NoError(t, err)
	assert.Equal(t, int64(42), out)
}

func TestRender_ParseError(t *testing.T) {
	_, err := Render("{{.broken", nil)

	assert.Error(t, err)
}

func TestRenderWithSnapshot(t *testing.T) {
	mem := models.MemorySnapshot{"task_t1_result": map[string]any{"status_code": 200}}

	out, err := RenderWithSnapshot("{{.memory.task_t1_result.status_code}}", mem)
	require.NoError(t, err)
	assert.Equal(t, int64(200), out)

	out, err = RenderWithSnapshot("{{.task_t1_result.status_code}}", mem)
	require.NoError(t, err)
	assert.Equal(t, int64(200), out)
}

func TestRender_JSONHelper(t *testing.T) {
	out, err := Render(`{{json .items}}`, map[string]any{"items": []any{1, 2}})

	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, out)
}
