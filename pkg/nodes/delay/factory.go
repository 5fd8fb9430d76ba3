package delay

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Factory creates DelayNode instances.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}

// Create creates a new DelayNode instance.
func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewDelayNode(id, config)
}

// Type returns the node type produced by this factory.
func (f *Factory) Type() models.NodeType {
	return models.NodeTypeDelay
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Pauses traversal for a configured duration; long waits are rescheduled through the due index"
}

// Schema returns the JSON schema for delay node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration_seconds": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Seconds to wait before advancing to the next node",
			},
		},
		"required": []string{"duration_seconds"},
	}
}
