package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/mocks"
	"github.com/conduitcrm/conduit/pkg/models"
)

func newDefaultRegistry() *Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := NewRegistry(logger)
	registry.RegisterDefaults(Dependencies{
		Evaluator: &mocks.MockObjectiveEvaluator{},
		Provider:  &mocks.MockChannelProvider{},
	})

	return registry
}

func TestRegistry_RegisterDefaultsCoversBuiltinTypes(t *testing.T) {
	registry := newDefaultRegistry()

	types := registry.AvailableTypes()
	assert.ElementsMatch(t, []models.NodeType{
		models.NodeTypeTrigger,
		models.NodeTypeAction,
		models.NodeTypeCondition,
		models.NodeTypeDelay,
		models.NodeTypeHTTP,
		models.NodeTypeAIObjective,
	}, types)
}

func TestRegistry_CreateNodeBindsIDAndConfig(t *testing.T) {
	registry := newDefaultRegistry()

	node, err := registry.CreateNode(context.Background(), models.NodeTypeCondition, "c1", map[string]any{
		"field":    "score",
		"operator": "greater_than",
		"value":    50,
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", node.ID())
	assert.Equal(t, models.NodeTypeCondition, node.Type())
}

func TestRegistry_CreateNodeUnknownType(t *testing.T) {
	registry := newDefaultRegistry()

	_, err := registry.CreateNode(context.Background(), "teleport", "t1", nil)
	assert.Error(t, err)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	registry := newDefaultRegistry()

	assert.NoError(t, registry.ValidateConfig(models.NodeTypeAction, map[string]any{
		"action":     "send_message",
		"channel_id": "chan-1",
		"content":    "hi",
	}))

	// "action" is constrained to the supported kinds.
	assert.Error(t, registry.ValidateConfig(models.NodeTypeAction, map[string]any{
		"action": "teleport",
	}))

	// Required field missing.
	assert.Error(t, registry.ValidateConfig(models.NodeTypeAction, map[string]any{}))

	assert.Error(t, registry.ValidateConfig("teleport", nil))
}

func TestRegistry_ValidateConfigDelayDuration(t *testing.T) {
	registry := newDefaultRegistry()

	assert.NoError(t, registry.ValidateConfig(models.NodeTypeDelay, map[string]any{
		"duration_seconds": 10,
	}))
	assert.Error(t, registry.ValidateConfig(models.NodeTypeDelay, map[string]any{}))
}
