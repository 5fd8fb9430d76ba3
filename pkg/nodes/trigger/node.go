// Package trigger provides the graph entry node. It performs no work of its
// own: it surfaces the trigger payload into the run context so downstream
// nodes can reference it.
package trigger

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
)

// TriggerNode is the single entry point of a workflow graph.
type TriggerNode struct {
	id string
}

// NewTriggerNode creates a new trigger node.
func NewTriggerNode(id string, _ map[string]any) (*TriggerNode, error) {
	return &TriggerNode{id: id}, nil
}

// ID returns the node ID.
func (n *TriggerNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *TriggerNode) Type() models.NodeType {
	return models.NodeTypeTrigger
}

// Execute copies the trigger payload into the run context.
func (n *TriggerNode) Execute(_ context.Context, ec models.ExecutionContext) (*models.NodeResult, error) {
	data := make(map[string]any, len(ec.TriggerData))
	for k, v := range ec.TriggerData {
		data[k] = v
	}

	return &models.NodeResult{Data: data}, nil
}
