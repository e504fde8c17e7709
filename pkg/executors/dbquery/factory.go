package dbquery

import "github.com/goalflow/goalflow/pkg/protocol"

// Factory creates db_query executors bound to an engine-wide default DSN.
type Factory struct {
	defaultDSN string
}

func NewFactory(defaultDSN string) *Factory {
	return &Factory{defaultDSN: defaultDSN}
}

func (f *Factory) ID() string {
	return "db_query"
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	return New(config, f.defaultDSN)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "SQL statement with $1-style placeholders.",
			},
			"params": map[string]any{
				"type":        "array",
				"description": "Positional statement parameters.",
			},
			"dsn": map[string]any{
				"type":        "string",
				"description": "PostgreSQL connection string, overriding the engine default.",
			},
			"memory_key": map[string]any{
				"type":        "string",
				"description": "Optional memory key to export the rows under.",
			},
		},
		"required": []string{"query"},
	}
}
