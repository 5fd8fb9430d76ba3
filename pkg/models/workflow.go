// Package models defines the core domain models for tenant workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"     // Editable, not executable
	WorkflowStatusPublished WorkflowStatus = "published" // Active, executable
	WorkflowStatusPaused    WorkflowStatus = "paused"    // Published but not accepting triggers
	WorkflowStatusArchived  WorkflowStatus = "archived"  // Historical, never hard-deleted
)

// NodeType identifies a node capability in the registry.
type NodeType string

const (
	NodeTypeTrigger     NodeType = "trigger"
	NodeTypeAction      NodeType = "action"
	NodeTypeCondition   NodeType = "condition"
	NodeTypeDelay       NodeType = "delay"
	NodeTypeHTTP        NodeType = "http"
	NodeTypeAIObjective NodeType = "ai_objective"
)

// Node is a unit of work in the workflow graph. Config is opaque to the
// executor and interpreted by the node capability.
type Node struct {
	ID     string         `json:"id"   validate:"required"`
	Type   NodeType       `json:"type" validate:"required"`
	Config map[string]any `json:"config"`
}

// EdgeCondition selects an edge when the source node produced a branch signal.
type EdgeCondition struct {
	Branch string `json:"branch" validate:"required"`
}

// Edge connects two nodes. An edge without Condition is the default edge for
// its source node; at most one default edge may exist per source.
type Edge struct {
	Source    string         `json:"source" validate:"required"`
	Target    string         `json:"target" validate:"required"`
	Condition *EdgeCondition `json:"condition,omitempty"`
}

// IsDefault reports whether this edge is the condition-less default for its source.
func (e *Edge) IsDefault() bool {
	return e.Condition == nil
}

// Workflow represents a tenant-defined directed graph of automation nodes.
// Published workflows are immutable except through a new version.
type Workflow struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"   validate:"required"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Status      WorkflowStatus `json:"status"      validate:"required"`
	Version     int            `json:"version"`
	Nodes       []*Node        `json:"nodes"`
	Edges       []*Edge        `json:"edges"`
	Variables   map[string]any `json:"variables,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	ArchivedAt  *time.Time     `json:"archived_at,omitempty"`
}

// NodeByID looks up a node in the graph.
func (w *Workflow) NodeByID(id string) (*Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return nil, false
}

// TriggerNode returns the graph's single trigger node. Validity of the graph
// (exactly one trigger) is enforced at publish time, not here.
func (w *Workflow) TriggerNode() (*Node, bool) {
	for _, n := range w.Nodes {
		if n.Type == NodeTypeTrigger {
			return n, true
		}
	}

	return nil, false
}

// EdgesFrom returns all edges whose source is the given node.
func (w *Workflow) EdgesFrom(nodeID string) []*Edge {
	edges := make([]*Edge, 0, 2)

	for _, e := range w.Edges {
		if e.Source == nodeID {
			edges = append(edges, e)
		}
	}

	return edges
}

// IsExecutable reports whether the workflow may accept new runs.
func (w *Workflow) IsExecutable() bool {
	return w.Status == WorkflowStatusPublished
}
