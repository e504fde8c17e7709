package apicall

import "github.com/goalflow/goalflow/pkg/protocol"

// Factory creates api_call executors.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "api_call"
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	return New(config)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method, defaults to GET.",
			},
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL.",
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers as string pairs.",
			},
			"params": map[string]any{
				"type":        "object",
				"description": "Query parameters merged into the URL.",
			},
			"body": map[string]any{
				"description": "Request body: a raw string or a structure encoded as JSON.",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds, defaults to 30.",
			},
			"memory_key": map[string]any{
				"type":        "string",
				"description": "Optional memory key to export the response under.",
			},
		},
		"required": []string{"url"},
	}
}
