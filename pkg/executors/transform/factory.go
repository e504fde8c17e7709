package transform

import "github.com/goalflow/goalflow/pkg/protocol"

// Factory creates data_transform executors.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "data_transform"
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	return New(config)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": "Template selecting the input data. Empty means the whole memory snapshot.",
				"examples": []string{
					"{{.task_fetch_result}}",
					"{{.memory.users_response.body}}",
				},
			},
			"expression": map[string]any{
				"type":        "string",
				"format":      "template",
				"description": "Go template producing the transformed value. JSON output is returned structured.",
				"examples": []string{
					"{{.name}}",
					`{"count": {{len .items}}}`,
					"{{json .memory}}",
				},
			},
			"memory_key": map[string]any{
				"type":        "string",
				"description": "Optional memory key to export the transformed value under.",
			},
		},
		"required": []string{"expression"},
	}
}
