package condition

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Factory creates ConditionNode instances.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}

// Create creates a new ConditionNode instance.
func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewConditionNode(id, config)
}

// Type returns the node type produced by this factory.
func (f *Factory) Type() models.NodeType {
	return models.NodeTypeCondition
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Compares a run context field against a value (equals, contains, greater_than) and records the boolean result"
}

// Schema returns the JSON schema for condition node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"description": "Run context field to compare",
			},
			"operator": map[string]any{
				"type":    "string",
				"enum":    []string{OperatorEquals, OperatorContains, OperatorGreaterThan},
				"default": OperatorEquals,
			},
			"value": map[string]any{
				"description": "Value to compare against",
			},
		},
		"required": []string{"field"},
	}
}
