// Package plugin manages extensions that teach the restore engine new item
// kinds and subscribe to workspace lifecycle hooks.
package plugin

import (
	"context"

	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/restore"
)

// Plugin is implemented by every extension.
type Plugin interface {
	// ID returns a unique identifier, e.g. "placeholders".
	ID() string

	// Name returns a human-readable name.
	Name() string

	// Version returns the plugin version string.
	Version() string

	// Init registers item kinds and hooks through api.
	Init(ctx context.Context, api API) error

	// Close releases whatever Init acquired.
	Close() error
}

// API is what a plugin may touch during Init.
type API struct {
	Kinds *restore.Registry
	Hooks *hooks.Manager
	Log   *logging.Logger
}
