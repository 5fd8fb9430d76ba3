// Package protocol defines the interfaces and contracts between the engine
// and its pluggable node capabilities and external collaborators.
package protocol

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
)

// Node is one executable capability instance bound to a graph node's config.
type Node interface {
	// ID returns the graph node id this instance was created for
	ID() string

	// Type returns the node type handled by this capability
	Type() models.NodeType

	// Execute runs the capability against the current execution context.
	// A returned error is fatal to the containing run.
	Execute(ctx context.Context, ec models.ExecutionContext) (*models.NodeResult, error)
}

// NodeFactory creates node instances and provides metadata about the type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// Type returns the node type this factory produces
	Type() models.NodeType

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
