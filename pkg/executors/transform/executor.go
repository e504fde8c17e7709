// Package transform provides the data_transform executor: template-driven
// reshaping of data already present in workflow memory.
package transform

import (
	"context"
	"fmt"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/template"
)

// Executor renders an expression template over the memory snapshot. An
// optional input template narrows the data the expression sees.
type Executor struct {
	Input      string
	Expression string
	MemoryKey  string
}

// New builds an executor from an action config.
func New(config map[string]any) (*Executor, error) {
	expression, _ := config["expression"].(string)
	if expression == "" {
		return nil, fmt.Errorf("data_transform requires an expression")
	}

	input, _ := config["input"].(string)
	memoryKey, _ := config["memory_key"].(string)

	return &Executor{
		Input:      input,
		Expression: expression,
		MemoryKey:  memoryKey,
	}, nil
}

// Execute renders the transformation.
func (e *Executor) Execute(_ context.Context, _ map[string]any, mem models.MemorySnapshot) (*models.ExecutionResult, error) {
	data, err := e.extract(mem)
	if err != nil {
		return nil, fmt.Errorf("failed to get input data: %w", err)
	}

	output, err := template.Render(e.Expression, data)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	result := &models.ExecutionResult{Output: output}
	if e.MemoryKey != "" {
		result.MemoryWrites = []models.MemoryWrite{{Key: e.MemoryKey, Value: output}}
	}

	return result, nil
}

func (e *Executor) extract(mem models.MemorySnapshot) (any, error) {
	if e.Input == "" {
		data := make(map[string]any, len(mem)+1)
		for k, v := range mem {
			data[k] = v
		}

		data["memory"] = map[string]any(mem)

		return data, nil
	}

	return template.RenderWithSnapshot(e.Input, mem)
}
