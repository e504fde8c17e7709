package wait

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesSeconds(t *testing.T) {
	executor, err := New(map[string]any{"duration": 0.05})
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, executor.Duration)
}

func TestNewParsesDurationString(t *testing.T) {
	executor, err := New(map[string]any{"duration": "250ms"})
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, executor.Duration)
}

func TestNewDefaultsToOneSecond(t *testing.T) {
	executor, err := New(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, time.Second, executor.Duration)
}

func TestNewRejectsNegativeDuration(t *testing.T) {
	_, err := New(map[string]any{"duration": -1.0})
	require.Error(t, err)
}

func TestExecuteWaits(t *testing.T) {
	executor, err := New(map[string]any{"duration": 0.02})
	require.NoError(t, err)

	start := time.Now()
	result, err := executor.Execute(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	output, ok := result.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.02, output["waited_seconds"])
}

func TestExecuteHonorsCancellation(t *testing.T) {
	executor, err := New(map[string]any{"duration": 5.0})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = executor.Execute(ctx, nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
