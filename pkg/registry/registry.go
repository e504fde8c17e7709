// Package registry maps action type tags to executor factories. Dispatch is a
// tagged-variant lookup: unknown tags are a typed error, never a silent no-op.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/goalflow/goalflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// UnsupportedActionError indicates an action type no factory is registered
// for. It is a task-level error: the scheduler routes it through the retry
// policy like any other executor failure.
type UnsupportedActionError struct {
	ActionType string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("action type %q not registered", e.ActionType)
}

// Registry holds the executor factories for one engine instance. It is
// populated at startup and read-only afterwards.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ExecutorFactory
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.ExecutorFactory),
	}
}

// RegisterExecutor adds a factory under its ID, replacing any previous one.
func (r *Registry) RegisterExecutor(factory protocol.ExecutorFactory) {
	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered executor", "action_type", factory.ID())
}

// ActionTypes returns the registered tags in no particular order.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	return types
}

// CreateExecutor resolves the factory for actionType, validates config
// against the factory's schema, and builds the executor.
func (r *Registry) CreateExecutor(actionType string, config map[string]any) (protocol.Executor, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, &UnsupportedActionError{ActionType: actionType}
	}

	if schema := factory.Schema(); schema != nil {
		if err := validateConfig(schema, config); err != nil {
			return nil, fmt.Errorf("invalid config for action type %q: %w", actionType, err)
		}
	}

	return factory.Create(config)
}

func validateConfig(schema, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%s", strings.Join(details, "; "))
}
