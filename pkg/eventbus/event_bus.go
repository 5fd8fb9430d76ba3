// Package eventbus provides the publish/subscribe abstraction used between
// the API, workers and the scheduler. Delivery is at-least-once; handlers
// must tolerate duplicates.
package eventbus

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/events"
)

// EventHandler processes one deserialized event.
type EventHandler func(ctx context.Context, event any) error

// EventBus is the engine's bus contract.
type EventBus interface {
	// GenerateID returns a unique message id
	GenerateID() string

	// Publish sends an event keyed by tenant for partition affinity
	Publish(ctx context.Context, key string, event events.Event) error

	// Subscribe starts consuming the event topic
	Subscribe(ctx context.Context) error

	// Handle registers the handler for an event type
	Handle(eventType events.EventType, handler EventHandler) error

	Close() error
}
