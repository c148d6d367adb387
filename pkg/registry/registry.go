// Package registry holds the catalog of available workflow step actions.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/glowdesk/glowdesk/pkg/protocol"
)

type Registry struct {
	logger        *slog.Logger
	stepFactories map[string]protocol.StepFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log,
		stepFactories: make(map[string]protocol.StepFactory),
	}
}

func (r *Registry) RegisterStep(stepFactory protocol.StepFactory) {
	r.stepFactories[stepFactory.ID()] = stepFactory
}

// CreateStep validates the block configuration against the factory schema and
// instantiates the action.
func (r *Registry) CreateStep(stepType string, config map[string]any) (protocol.StepAction, error) {
	factory, ok := r.stepFactories[stepType]
	if !ok {
		return nil, fmt.Errorf("step type '%s' not registered", stepType)
	}

	err := r.validateConfig(factory.Schema(), config)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration for step type '%s': %w", stepType, err)
	}

	return factory.Create(config)
}

// AvailableSteps returns all registered step types.
func (r *Registry) AvailableSteps() []string {
	types := make([]string, 0, len(r.stepFactories))
	for stepType := range r.stepFactories {
		types = append(types, stepType)
	}

	return types
}

func (r *Registry) validateConfig(schema map[string]any, config map[string]any) error {
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
