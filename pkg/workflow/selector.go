package workflow

import (
	"github.com/conduitcrm/conduit/pkg/models"
)

// SelectNext resolves the edge to follow out of a node. When the node
// produced a branch signal, the edge whose condition matches the signal wins;
// otherwise the node's default edge is taken. Conditional edges are ignored
// for nodes that produced no signal.
//
// The second return is false when traversal ends at this node.
func SelectNext(workflow *models.Workflow, nodeID string, signal string) (string, bool) {
	edges := workflow.EdgesFrom(nodeID)
	if len(edges) == 0 {
		return "", false
	}

	if signal != "" {
		for _, edge := range edges {
			if edge.Condition != nil && edge.Condition.Branch == signal {
				return edge.Target, true
			}
		}
	}

	for _, edge := range edges {
		if edge.IsDefault() {
			return edge.Target, true
		}
	}

	return "", false
}
