package trigger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/models"
)

func TestTriggerNode_SurfacesTriggerData(t *testing.T) {
	node, err := NewTriggerNode("start", nil)
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeTrigger, node.Type())

	result, err := node.Execute(context.Background(), models.ExecutionContext{
		TriggerData: map[string]any{"contact_id": "c1", "source": "webhook"},
	})
	require.NoError(t, err)

	assert.Equal(t, "c1", result.Data["contact_id"])
	assert.Equal(t, "webhook", result.Data["source"])
	assert.Empty(t, result.Signal)
}

func TestTriggerNode_NoTriggerData(t *testing.T) {
	node, err := NewTriggerNode("start", map[string]any{"kind": "manual"})
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{})
	require.NoError(t, err)
	assert.Empty(t, result.Data)
}
