package cmd

import (
	"log/slog"

	"github.com/conduitcrm/conduit/pkg/registry"
)

// NewRegistry builds the node capability registry with the built-in node
// set.
func NewRegistry(logger *slog.Logger, deps registry.Dependencies) *registry.Registry {
	r := registry.NewRegistry(logger)
	r.RegisterDefaults(deps)

	return r
}
