// Package delay provides the wait node for workflow graphs. Short waits
// suspend cooperatively on a timer; long waits park the run through the due
// index so a worker slot is not held for the full duration.
package delay

import (
	"context"
	"errors"
	"time"

	"github.com/conduitcrm/conduit/pkg/models"
)

// InlineThreshold is the longest wait served by an in-process timer. Waits
// beyond it are rescheduled through the due index.
const InlineThreshold = 30 * time.Second

// DelayNode pauses traversal for a configured duration.
type DelayNode struct {
	id       string
	duration time.Duration
}

// NewDelayNode creates a new delay node.
func NewDelayNode(id string, config map[string]any) (*DelayNode, error) {
	seconds, ok := toSeconds(config["duration_seconds"])
	if !ok || seconds <= 0 {
		return nil, errors.New("missing or invalid field 'duration_seconds'")
	}

	return &DelayNode{
		id:       id,
		duration: time.Duration(seconds) * time.Second,
	}, nil
}

// ID returns the node ID.
func (n *DelayNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *DelayNode) Type() models.NodeType {
	return models.NodeTypeDelay
}

// Execute waits inline for short delays. For long delays it returns a
// DelayUntil result; the executor persists the run and reschedules it via
// the due index. Cancellation is checked while waiting.
func (n *DelayNode) Execute(ctx context.Context, _ models.ExecutionContext) (*models.NodeResult, error) {
	if n.duration > InlineThreshold {
		resumeAt := time.Now().UTC().Add(n.duration)

		return &models.NodeResult{
			Data:       map[string]any{"delayed_seconds": n.duration.Seconds()},
			DelayUntil: &resumeAt,
		}, nil
	}

	timer := time.NewTimer(n.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return &models.NodeResult{
		Data: map[string]any{"delayed_seconds": n.duration.Seconds()},
	}, nil
}

func toSeconds(v any) (int, bool) {
	switch value := v.(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		return int(value), true
	default:
		return 0, false
	}
}
