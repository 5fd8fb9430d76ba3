package dueindex

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryIndex is an in-process due index for tests and single-node
// deployments. The mutex makes claim-and-remove atomic within the process;
// cross-process safety requires the redis index.
type MemoryIndex struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]time.Time)}
}

func (m *MemoryIndex) Insert(_ context.Context, itemID string, dueAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[itemID] = dueAt

	return nil
}

func (m *MemoryIndex) ClaimDue(_ context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type entry struct {
		id    string
		dueAt time.Time
	}

	due := make([]entry, 0)

	for id, dueAt := range m.entries {
		if !dueAt.After(now) {
			due = append(due, entry{id: id, dueAt: dueAt})
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].dueAt.Before(due[j].dueAt)
	})

	ids := make([]string, 0, len(due))

	for _, e := range due {
		delete(m.entries, e.id)
		ids = append(ids, e.id)
	}

	return ids, nil
}

func (m *MemoryIndex) Remove(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, itemID)

	return nil
}

func (m *MemoryIndex) Close() error {
	return nil
}
