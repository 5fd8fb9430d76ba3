package httprequest

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Factory creates HTTPNode instances.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}

// Create creates a new HTTPNode instance.
func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewHTTPNode(id, config)
}

// Type returns the node type produced by this factory.
func (f *Factory) Type() models.NodeType {
	return models.NodeTypeHTTP
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Performs an HTTP request with a bounded timeout and merges the response into the run context"
}

// Schema returns the JSON schema for HTTP node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Supports templating with run context data.",
			},
			"method": map[string]any{
				"type":    "string",
				"enum":    []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
				"default": "GET",
			},
			"headers": map[string]any{
				"type": "object",
			},
			"body": map[string]any{
				"type": "string",
			},
			"timeout_seconds": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"default": 30,
			},
		},
		"required": []string{"url"},
	}
}
