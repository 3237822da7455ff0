// Package plugin lets host integrations extend the assistant: register
// invokers for domain actions, add guided flows and listen to hooks.
package plugin

import (
	"context"

	"github.com/soyeahso/sidekick/internal/action"
	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/hooks"
	"github.com/soyeahso/sidekick/internal/intent"
	"github.com/soyeahso/sidekick/internal/logging"
)

// Plugin is the interface that all plugins must implement.
type Plugin interface {
	// ID returns a unique identifier for the plugin (e.g., "workspace").
	ID() string

	// Name returns a human-readable name.
	Name() string

	// Version returns the plugin version string.
	Version() string

	// Init registers the plugin's invokers, flows and hooks.
	Init(ctx context.Context, api API) error

	// Close shuts down the plugin and releases resources.
	Close() error
}

// API is what a plugin may touch. Any field may be nil when the host did
// not provide it.
type API struct {
	Hooks   *hooks.Manager
	Actions *action.Executor
	Flows   *flow.Registry
	Intents *intent.Catalogue
	Log     *logging.Logger
}
