package action

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Factory creates ActionNode instances bound to the channel provider.
type Factory struct {
	provider protocol.ChannelProvider
}

// NewFactory creates a new factory instance.
func NewFactory(provider protocol.ChannelProvider) protocol.NodeFactory {
	return &Factory{provider: provider}
}

// Create creates a new ActionNode instance.
func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewActionNode(id, config, f.provider)
}

// Type returns the node type produced by this factory.
func (f *Factory) Type() models.NodeType {
	return models.NodeTypeAction
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Executes a side effect: send a message via the channel provider, set context variables, or log"
}

// Schema returns the JSON schema for action node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []string{KindSendMessage, KindSetVariables, KindLog},
			},
			"channel_id": map[string]any{"type": "string"},
			"to":         map[string]any{"type": "string"},
			"content":    map[string]any{"type": "string"},
			"variables":  map[string]any{"type": "object"},
			"message":    map[string]any{"type": "string"},
		},
		"required": []string{"action"},
	}
}
