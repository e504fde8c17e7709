package apicall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users": ["ada"]}`))
	}))
	defer server.Close()

	executor, err := New(map[string]any{
		"url":        server.URL,
		"headers":    map[string]any{"Authorization": "token"},
		"params":     map[string]any{"page": "1"},
		"memory_key": "users_response",
	})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), nil, nil)
	require.NoError(t, err)

	output, ok := result.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 200, output["status_code"])

	body, ok := output["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"ada"}, body["users"])

	require.Len(t, result.MemoryWrites, 1)
	assert.Equal(t, "users_response", result.MemoryWrites[0].Key)
}

func TestExecute_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer server.Close()

	executor, err := New(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), nil, nil)
	require.NoError(t, err)

	output := result.Output.(map[string]any)
	assert.Equal(t, "plain text", output["body"])
	assert.Empty(t, result.MemoryWrites)
}

func TestExecute_ServerErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	executor, err := New(map[string]any{"url": server.URL})
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestExecute_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor, err := New(map[string]any{"url": server.URL, "timeout": 0.05})
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(map[string]any{})

	assert.Error(t, err)
}

func TestNew_MethodUppercased(t *testing.T) {
	executor, err := New(map[string]any{"url": "http://example.com", "method": "post"})

	require.NoError(t, err)
	assert.Equal(t, "POST", executor.Method)
}
