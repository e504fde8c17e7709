package wait

import (
	"github.com/goalflow/goalflow/pkg/protocol"
)

// Factory creates wait executors.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	return New(config)
}

func (f *Factory) ID() string {
	return "wait"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"description": "Seconds to wait, or a duration string such as \"500ms\".",
			},
		},
	}
}
