package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGraph() *Workflow {
	return &Workflow{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "valid graph",
		Nodes: []*Node{
			{ID: "start", Type: NodeTypeTrigger},
			{ID: "decide", Type: NodeTypeAIObjective},
			{ID: "notify", Type: NodeTypeAction},
		},
		Edges: []*Edge{
			{Source: "start", Target: "decide"},
			{Source: "decide", Target: "notify", Condition: &EdgeCondition{Branch: "SUCCESS"}},
		},
	}
}

func TestValidateGraph_Valid(t *testing.T) {
	assert.NoError(t, validGraph().ValidateGraph())
}

func TestValidateGraph_EmptyGraph(t *testing.T) {
	workflow := &Workflow{ID: "wf-1"}

	err := workflow.ValidateGraph()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestValidateGraph_MissingTrigger(t *testing.T) {
	workflow := validGraph()
	workflow.Nodes = workflow.Nodes[1:]
	workflow.Edges = workflow.Edges[1:]

	err := workflow.ValidateGraph()
	assert.ErrorIs(t, err, ErrMissingTriggerNode)
}

func TestValidateGraph_MultipleTriggers(t *testing.T) {
	workflow := validGraph()
	workflow.Nodes = append(workflow.Nodes, &Node{ID: "start2", Type: NodeTypeTrigger})
	workflow.Edges = append(workflow.Edges, &Edge{Source: "notify", Target: "start2"})

	err := workflow.ValidateGraph()
	assert.ErrorIs(t, err, ErrMultipleTriggerNodes)
}

func TestValidateGraph_DanglingEdge(t *testing.T) {
	workflow := validGraph()
	workflow.Edges = append(workflow.Edges, &Edge{Source: "notify", Target: "ghost"})

	err := workflow.ValidateGraph()
	assert.ErrorIs(t, err, ErrDanglingEdge)
}

func TestValidateGraph_AmbiguousDefaultEdge(t *testing.T) {
	workflow := validGraph()
	workflow.Edges = append(workflow.Edges,
		&Edge{Source: "start", Target: "notify"},
	)

	err := workflow.ValidateGraph()
	assert.ErrorIs(t, err, ErrAmbiguousDefaultEdge)
}

func TestValidateGraph_UnreachableNode(t *testing.T) {
	workflow := validGraph()
	workflow.Nodes = append(workflow.Nodes, &Node{ID: "island", Type: NodeTypeAction})

	err := workflow.ValidateGraph()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachableNode)

	var validationErr *GraphValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "island", validationErr.NodeID)
}
