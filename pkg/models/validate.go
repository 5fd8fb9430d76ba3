package models

import (
	"errors"
	"fmt"
)

// Graph validation errors. These surface at publish time only; a published
// workflow is structurally sound for the executor.
var (
	ErrEmptyGraph           = errors.New("workflow graph has no nodes")
	ErrMissingTriggerNode   = errors.New("workflow graph has no trigger node")
	ErrMultipleTriggerNodes = errors.New("workflow graph has more than one trigger node")
	ErrUnreachableNode      = errors.New("node is unreachable from the trigger node")
	ErrAmbiguousDefaultEdge = errors.New("node has more than one default edge")
	ErrDanglingEdge         = errors.New("edge references a node that does not exist")
)

// GraphValidationError wraps a graph validation failure with the offending
// node or edge for tenant-facing error messages.
type GraphValidationError struct {
	WorkflowID string
	NodeID     string
	Err        error
}

func (e *GraphValidationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("invalid graph in workflow %s: node %s: %v", e.WorkflowID, e.NodeID, e.Err)
	}

	return fmt.Sprintf("invalid graph in workflow %s: %v", e.WorkflowID, e.Err)
}

func (e *GraphValidationError) Unwrap() error {
	return e.Err
}

// ValidateGraph checks the structural invariants required before publishing:
// at least one node, exactly one trigger, no dangling edges, at most one
// default edge per source, and every node reachable from the trigger.
func (w *Workflow) ValidateGraph() error {
	if len(w.Nodes) == 0 {
		return &GraphValidationError{WorkflowID: w.ID, Err: ErrEmptyGraph}
	}

	var trigger *Node

	for _, n := range w.Nodes {
		if n.Type != NodeTypeTrigger {
			continue
		}

		if trigger != nil {
			return &GraphValidationError{WorkflowID: w.ID, NodeID: n.ID, Err: ErrMultipleTriggerNodes}
		}

		trigger = n
	}

	if trigger == nil {
		return &GraphValidationError{WorkflowID: w.ID, Err: ErrMissingTriggerNode}
	}

	defaults := make(map[string]int)

	for _, e := range w.Edges {
		if _, ok := w.NodeByID(e.Source); !ok {
			return &GraphValidationError{WorkflowID: w.ID, NodeID: e.Source, Err: ErrDanglingEdge}
		}

		if _, ok := w.NodeByID(e.Target); !ok {
			return &GraphValidationError{WorkflowID: w.ID, NodeID: e.Target, Err: ErrDanglingEdge}
		}

		if e.IsDefault() {
			defaults[e.Source]++
			if defaults[e.Source] > 1 {
				return &GraphValidationError{WorkflowID: w.ID, NodeID: e.Source, Err: ErrAmbiguousDefaultEdge}
			}
		}
	}

	reachable := w.reachableFrom(trigger.ID)

	for _, n := range w.Nodes {
		if !reachable[n.ID] {
			return &GraphValidationError{WorkflowID: w.ID, NodeID: n.ID, Err: ErrUnreachableNode}
		}
	}

	return nil
}

// reachableFrom walks edges breadth-first from the given node.
func (w *Workflow) reachableFrom(start string) map[string]bool {
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range w.EdgesFrom(current) {
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	return visited
}
