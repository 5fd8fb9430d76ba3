// Package dueindex provides the time-ordered index of pending scheduled
// items. Membership implies "not yet claimed by a poller"; ClaimDue is an
// atomic remove-and-return so each due item is handed to exactly one poller
// invocation.
package dueindex

import (
	"context"
	"time"
)

// Index is the due-time index contract shared by the redis and in-memory
// implementations.
type Index interface {
	// Insert adds or updates an item's due time
	Insert(ctx context.Context, itemID string, dueAt time.Time) error

	// ClaimDue atomically removes and returns every item due at or before
	// now. A claimed id is gone from the index; re-processing requires a new
	// Insert.
	ClaimDue(ctx context.Context, now time.Time) ([]string, error)

	// Remove drops an item from the index, e.g. on cancel
	Remove(ctx context.Context, itemID string) error

	Close() error
}
