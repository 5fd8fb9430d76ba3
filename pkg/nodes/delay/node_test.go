package delay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/models"
)

func TestNewDelayNode_Validation(t *testing.T) {
	_, err := NewDelayNode("d1", map[string]any{})
	assert.Error(t, err)

	_, err = NewDelayNode("d1", map[string]any{"duration_seconds": 0})
	assert.Error(t, err)

	_, err = NewDelayNode("d1", map[string]any{"duration_seconds": "soon"})
	assert.Error(t, err)

	// JSON decoding yields float64 for numbers.
	node, err := NewDelayNode("d1", map[string]any{"duration_seconds": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, node.duration)
}

func TestDelayNode_ShortDelayWaitsInline(t *testing.T) {
	node, err := NewDelayNode("d1", map[string]any{"duration_seconds": 1})
	require.NoError(t, err)
	node.duration = 10 * time.Millisecond

	start := time.Now()

	result, err := node.Execute(context.Background(), models.ExecutionContext{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Nil(t, result.DelayUntil)
}

func TestDelayNode_ShortDelayHonorsCancellation(t *testing.T) {
	node, err := NewDelayNode("d1", map[string]any{"duration_seconds": 30})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = node.Execute(ctx, models.ExecutionContext{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelayNode_LongDelayReturnsDelayUntil(t *testing.T) {
	node, err := NewDelayNode("d1", map[string]any{"duration_seconds": 3600})
	require.NoError(t, err)

	start := time.Now()

	result, err := node.Execute(context.Background(), models.ExecutionContext{})
	require.NoError(t, err)

	// Long waits return immediately instead of holding the worker.
	assert.Less(t, time.Since(start), time.Second)
	require.NotNil(t, result.DelayUntil)
	assert.WithinDuration(t, start.Add(time.Hour), *result.DelayUntil, 5*time.Second)
	assert.Equal(t, float64(3600), result.Data["delayed_seconds"])
}
