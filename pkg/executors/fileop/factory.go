package fileop

import "github.com/goalflow/goalflow/pkg/protocol"

// Factory creates file_operation executors.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "file_operation"
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	return New(config)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Filesystem operation to perform.",
				"enum":        []string{"read", "write", "delete", "list"},
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Target file or directory path.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content for write operations.",
			},
			"memory_key": map[string]any{
				"type":        "string",
				"description": "Optional memory key to export the outcome under.",
			},
		},
		"required": []string{"operation", "path"},
	}
}
