package plugin

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/sidekick/internal/logging"
)

// Info describes a registered plugin for plugins.list.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Initialized bool   `json:"initialized"`
	Error       string `json:"error,omitempty"`
}

type slot struct {
	p       Plugin
	inited  bool
	initErr error
}

// Registry owns plugins in registration order. Init runs front to back,
// Close back to front.
type Registry struct {
	mu    sync.RWMutex
	slots []*slot
	api   API
	log   *logging.Logger
}

// NewRegistry hands api to every plugin, each with its own Sub logger.
func NewRegistry(api API, log *logging.Logger) *Registry {
	return &Registry{api: api, log: log.Sub("plugins")}
}

func (r *Registry) find(id string) *slot {
	i := slices.IndexFunc(r.slots, func(s *slot) bool { return s.p.ID() == id })
	if i < 0 {
		return nil
	}
	return r.slots[i]
}

// Register adds p without initialising it. IDs must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(p.ID()) != nil {
		return fmt.Errorf("plugin already registered: %s", p.ID())
	}
	r.slots = append(r.slots, &slot{p: p})
	r.log.Info().Str("id", p.ID()).Str("name", p.Name()).Str("version", p.Version()).Msg("plugin registered")
	return nil
}

// InitAll initialises every plugin not yet initialised. The first failure
// closes whatever was initialised and is returned.
func (r *Registry) InitAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.slots {
		if s.inited {
			continue
		}
		id := s.p.ID()
		api := r.api
		api.Log = r.log.Sub(id)

		r.log.Debug().Str("id", id).Msg("initializing plugin")
		if err := s.p.Init(ctx, api); err != nil {
			s.initErr = err
			r.closeLocked()
			return fmt.Errorf("init plugin %s: %w", id, err)
		}
		s.inited, s.initErr = true, nil
	}
	return nil
}

// CloseAll closes initialised plugins, newest first.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Registry) closeLocked() {
	for _, s := range slices.Backward(r.slots) {
		if !s.inited {
			continue
		}
		s.inited = false
		if err := s.p.Close(); err != nil {
			r.log.Error().Err(err).Str("id", s.p.ID()).Msg("plugin close error")
		}
	}
}

// Get returns the plugin registered under id, or nil.
func (r *Registry) Get(id string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s := r.find(id); s != nil {
		return s.p
	}
	return nil
}

// List returns plugin IDs in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.slots))
	for i, s := range r.slots {
		ids[i] = s.p.ID()
	}
	return ids
}

func (r *Registry) Info() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, len(r.slots))
	for i, s := range r.slots {
		out[i] = Info{
			ID:          s.p.ID(),
			Name:        s.p.Name(),
			Version:     s.p.Version(),
			Initialized: s.inited,
		}
		if s.initErr != nil {
			out[i].Error = s.initErr.Error()
		}
	}
	return out
}
