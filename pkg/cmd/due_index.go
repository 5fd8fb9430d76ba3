package cmd

import (
	"context"
	"strings"

	"github.com/conduitcrm/conduit/pkg/dueindex"
)

// DueIndexKey is the sorted set holding every pending scheduled item.
const DueIndexKey = "conduit:due"

// NewDueIndex creates the due-time index from the index URL. Redis is the
// production backend; an empty or non-redis URL yields the in-memory index,
// which is only safe for a single-process deployment.
func NewDueIndex(ctx context.Context, indexURL string) (dueindex.Index, error) {
	if strings.HasPrefix(indexURL, "redis://") || strings.HasPrefix(indexURL, "rediss://") {
		return dueindex.NewRedisIndexFromURL(ctx, indexURL, DueIndexKey)
	}

	return dueindex.NewMemoryIndex(), nil
}
