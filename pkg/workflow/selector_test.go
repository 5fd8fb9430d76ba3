package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conduitcrm/conduit/pkg/models"
)

func branchEdge(source, target, branch string) *models.Edge {
	return &models.Edge{
		Source:    source,
		Target:    target,
		Condition: &models.EdgeCondition{Branch: branch},
	}
}

func TestSelectNext_SignalMatchesConditionalEdge(t *testing.T) {
	workflow := &models.Workflow{
		Edges: []*models.Edge{
			branchEdge("decide", "escalate", "SPEAK_TO_HUMAN"),
			branchEdge("decide", "proceed", "SUCCESS"),
			{Source: "decide", Target: "fallback"},
		},
	}

	next, ok := SelectNext(workflow, "decide", "SUCCESS")

	assert.True(t, ok)
	assert.Equal(t, "proceed", next)
}

func TestSelectNext_UnmatchedSignalFallsBackToDefault(t *testing.T) {
	workflow := &models.Workflow{
		Edges: []*models.Edge{
			branchEdge("decide", "proceed", "SUCCESS"),
			{Source: "decide", Target: "fallback"},
		},
	}

	next, ok := SelectNext(workflow, "decide", "UNABLE_TO_ANSWER")

	assert.True(t, ok)
	assert.Equal(t, "fallback", next)
}

func TestSelectNext_NoSignalIgnoresConditionalEdges(t *testing.T) {
	workflow := &models.Workflow{
		Edges: []*models.Edge{
			branchEdge("step", "conditional-target", "SUCCESS"),
			{Source: "step", Target: "default-target"},
		},
	}

	next, ok := SelectNext(workflow, "step", "")

	assert.True(t, ok)
	assert.Equal(t, "default-target", next)
}

func TestSelectNext_NoSignalAndOnlyConditionalEdgesEndsTraversal(t *testing.T) {
	workflow := &models.Workflow{
		Edges: []*models.Edge{
			branchEdge("step", "conditional-target", "SUCCESS"),
		},
	}

	next, ok := SelectNext(workflow, "step", "")

	assert.False(t, ok)
	assert.Empty(t, next)
}

func TestSelectNext_NoEdgesEndsTraversal(t *testing.T) {
	workflow := &models.Workflow{}

	next, ok := SelectNext(workflow, "last", "SUCCESS")

	assert.False(t, ok)
	assert.Empty(t, next)
}
