// Package registry maps node types to their execution capabilities.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Registry is the node capability registry. The node set is closed: every
// capability is compiled in and registered at wiring time.
type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeType]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.NodeType]protocol.NodeFactory),
	}
}

// Register adds a node factory, replacing any previous factory for the type.
func (r *Registry) Register(factory protocol.NodeFactory) {
	r.factories[factory.Type()] = factory
}

// CreateNode resolves a node type to its factory and builds an instance
// bound to the given graph node id and config.
func (r *Registry) CreateNode(ctx context.Context, nodeType models.NodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory.Create(ctx, id, config)
}

// ValidateConfig checks a node config against the factory's JSON schema.
// Used at publish time so malformed configs never reach a run.
func (r *Registry) ValidateConfig(nodeType models.NodeType, config map[string]any) error {
	factory, ok := r.factories[nodeType]
	if !ok {
		return fmt.Errorf("node type '%s' not registered", nodeType)
	}

	schema := factory.Schema()
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
		return fmt.Errorf("schema validation failed for node type '%s': %w", nodeType, err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("invalid config for node type '%s': %s", nodeType, errs[0].String())
		}

		return fmt.Errorf("invalid config for node type '%s'", nodeType)
	}

	return nil
}

// AvailableTypes lists the registered node types.
func (r *Registry) AvailableTypes() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	return types
}
