package cmd

import (
	"context"
	"strings"

	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/persistence/file"
	"github.com/conduitcrm/conduit/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence backend from the database URL scheme.
// Anything that is not postgres falls back to the file store.
func NewPersistence(ctx context.Context, databaseURL string) (persistence.Persistence, error) {
	switch parseScheme(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parseScheme(url string) string {
	parts := strings.Split(url, "://")
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
