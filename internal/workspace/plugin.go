package workspace

import (
	"context"
	"errors"

	"github.com/soyeahso/sidekick/internal/plugin"
)

// Plugin exposes a Store to the assistant through the plugin registry.
type Plugin struct {
	Store *Store
}

// NewPlugin creates a plugin over a fresh store.
func NewPlugin() *Plugin { return &Plugin{Store: NewStore()} }

func (p *Plugin) ID() string      { return "workspace" }
func (p *Plugin) Name() string    { return "In-memory workspace" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Init(_ context.Context, api plugin.API) error {
	if api.Actions == nil {
		return errors.New("workspace: no action executor")
	}
	Register(api.Actions, p.Store)
	if api.Log != nil {
		api.Log.Debug().Msg("workspace invokers registered")
	}
	return nil
}

func (p *Plugin) Close() error { return nil }
