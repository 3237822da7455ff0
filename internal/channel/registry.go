// Package channel keeps the chat channels the gateway relays to the
// assistant.
package channel

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/logging"
)

type statuser interface {
	Status() domain.ChannelStatus
}

// entry is a registered channel and the outcome of its Start call.
type entry struct {
	ch      domain.Channel
	lastErr error
}

// Registry owns the configured channels. Channels are keyed by ID; a
// second Register with the same ID replaces the first.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	wg      sync.WaitGroup
	log     *logging.Logger
}

func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		log:     log.Sub("channels"),
	}
}

func (r *Registry) Register(ch domain.Channel) {
	r.mu.Lock()
	r.entries[ch.ID()] = &entry{ch: ch}
	r.mu.Unlock()
	r.log.Info().Str("channel", ch.ID()).Msg("channel registered")
}

func (r *Registry) Get(id string) (domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.ch, true
}

// List returns the registered IDs, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Status reports every channel sorted by ID. Channels that cannot report
// on themselves are described by their last Start outcome.
func (r *Registry) Status() []domain.ChannelStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ChannelStatus, 0, len(r.entries))
	for _, id := range slices.Sorted(maps.Keys(r.entries)) {
		e := r.entries[id]
		if s, ok := e.ch.(statuser); ok {
			out = append(out, s.Status())
			continue
		}
		st := domain.ChannelStatus{ChannelID: id, Running: e.lastErr == nil}
		if e.lastErr != nil {
			st.LastError = e.lastErr.Error()
		}
		out = append(out, st)
	}
	return out
}

// Send routes msg to the channel named by msg.ChannelID.
func (r *Registry) Send(ctx context.Context, msg domain.OutboundMessage) error {
	ch, ok := r.Get(msg.ChannelID)
	if !ok {
		return fmt.Errorf("channel not found: %s", msg.ChannelID)
	}
	return ch.Send(ctx, msg)
}

// OnMessage installs handler on every registered channel.
func (r *Registry) OnMessage(handler func(domain.InboundMessage)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, e := range r.entries {
		e.ch.OnMessage(handler)
		r.log.Debug().Str("channel", id).Msg("message handler wired")
	}
}

// StartAll launches each channel's Start in its own goroutine, since a
// Start may block for the life of the connection. Failures are logged and
// kept for Status.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, e := range r.entries {
		r.log.Info().Str("channel", id).Msg("starting channel")
		r.wg.Go(func() {
			err := e.ch.Start(ctx)
			if err != nil {
				r.log.Error().Err(err).Str("channel", id).Msg("channel exited with error")
			}
			r.mu.Lock()
			e.lastErr = err
			r.mu.Unlock()
		})
	}
	return nil
}

// StopAll stops every channel, then waits for their Start calls to return
// or ctx to end.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	chans := make(map[string]domain.Channel, len(r.entries))
	for id, e := range r.entries {
		chans[id] = e.ch
	}
	r.mu.RUnlock()

	for id, ch := range chans {
		r.log.Info().Str("channel", id).Msg("stopping channel")
		if err := ch.Stop(ctx); err != nil {
			r.log.Error().Err(err).Str("channel", id).Msg("failed to stop channel")
		}
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.log.Warn().Msg("channels still running after stop")
	}
}
