package examples

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalflow/goalflow/pkg/graph"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"api_orchestration", "data_pipeline", "job_execution"}, Names())
}

func TestByNameUnknown(t *testing.T) {
	_, err := ByName("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown example")
}

func TestEveryExampleBuildsAValidGraph(t *testing.T) {
	for _, name := range Names() {
		example, err := ByName(name)
		require.NoError(t, err)
		require.NotEmpty(t, example.Goal)
		require.NotEmpty(t, example.Declarations)

		_, err = graph.New(example.Declarations)
		require.NoError(t, err, "example %s", name)
	}
}
