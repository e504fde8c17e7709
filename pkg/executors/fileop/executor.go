// Package fileop provides the file_operation executor: read, write, delete,
// and list operations on the local filesystem.
package fileop

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/template"
)

// Executor performs one filesystem operation per invocation.
type Executor struct {
	Operation string
	Path      string
	Content   string
	MemoryKey string
}

// New builds an executor from an action config.
func New(config map[string]any) (*Executor, error) {
	operation, _ := config["operation"].(string)
	path, _ := config["path"].(string)
	content, _ := config["content"].(string)
	memoryKey, _ := config["memory_key"].(string)

	if path == "" {
		return nil, fmt.Errorf("file_operation requires a path")
	}

	switch operation {
	case "read", "write", "delete", "list":
	default:
		return nil, fmt.Errorf("unknown file operation %q", operation)
	}

	return &Executor{
		Operation: operation,
		Path:      path,
		Content:   content,
		MemoryKey: memoryKey,
	}, nil
}

// Execute performs the operation.
func (e *Executor) Execute(_ context.Context, _ map[string]any, mem models.MemorySnapshot) (*models.ExecutionResult, error) {
	var (
		output map[string]any
		err    error
	)

	switch e.Operation {
	case "read":
		output, err = e.read()
	case "write":
		output, err = e.write(mem)
	case "delete":
		output, err = e.delete()
	case "list":
		output, err = e.list()
	}

	if err != nil {
		return nil, err
	}

	result := &models.ExecutionResult{Output: output}
	if e.MemoryKey != "" {
		result.MemoryWrites = []models.MemoryWrite{{Key: e.MemoryKey, Value: output}}
	}

	return result, nil
}

func (e *Executor) read() (map[string]any, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", e.Path, err)
	}

	return map[string]any{"path": e.Path, "content": string(data)}, nil
}

func (e *Executor) write(mem models.MemorySnapshot) (map[string]any, error) {
	content, err := e.renderContent(mem)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %q: %w", e.Path, err)
	}

	if err := os.WriteFile(e.Path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %q: %w", e.Path, err)
	}

	return map[string]any{"path": e.Path, "bytes_written": len(content)}, nil
}

// renderContent templates the content against the memory snapshot, so plans
// can write values produced by earlier tasks. Structured results are written
// as JSON.
func (e *Executor) renderContent(mem models.MemorySnapshot) (string, error) {
	if !strings.Contains(e.Content, "{{") {
		return e.Content, nil
	}

	rendered, err := template.RenderWithSnapshot(e.Content, mem)
	if err != nil {
		return "", err
	}

	if s, ok := rendered.(string); ok {
		return s, nil
	}

	data, err := json.Marshal(rendered)
	if err != nil {
		return "", fmt.Errorf("failed to encode rendered content: %w", err)
	}

	return string(data), nil
}

func (e *Executor) delete() (map[string]any, error) {
	err := os.Remove(e.Path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to delete %q: %w", e.Path, err)
	}

	return map[string]any{"path": e.Path, "deleted": err == nil}, nil
}

func (e *Executor) list() (map[string]any, error) {
	entries, err := os.ReadDir(e.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", e.Path, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return map[string]any{"path": e.Path, "files": names}, nil
}
