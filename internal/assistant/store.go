package assistant

import (
	"context"
	"maps"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/soyeahso/sidekick/internal/flow"
)

// FlowStore holds each session's active flow between turns.
type FlowStore interface {
	// Load returns the session's snapshot; ok is false when there is none.
	Load(ctx context.Context, key string) (s flow.Snapshot, ok bool, err error)
	Save(ctx context.Context, key string, s flow.Snapshot) error
	Delete(ctx context.Context, key string) error
}

// MemoryFlowStore keeps snapshots in process memory and forgets sessions
// idle for longer than the configured duration.
type MemoryFlowStore struct {
	c *cache.Cache
}

// NewMemoryFlowStore creates a store. idle <= 0 keeps flows until deleted.
func NewMemoryFlowStore(idle time.Duration) *MemoryFlowStore {
	if idle <= 0 {
		return &MemoryFlowStore{c: cache.New(cache.NoExpiration, 0)}
	}
	return &MemoryFlowStore{c: cache.New(idle, idle)}
}

func (m *MemoryFlowStore) Load(_ context.Context, key string) (flow.Snapshot, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return flow.Snapshot{}, false, nil
	}
	s := v.(flow.Snapshot)
	s.Collected = maps.Clone(s.Collected)
	return s, true, nil
}

func (m *MemoryFlowStore) Save(_ context.Context, key string, s flow.Snapshot) error {
	s.Collected = maps.Clone(s.Collected)
	m.c.Set(key, s, cache.DefaultExpiration)
	return nil
}

func (m *MemoryFlowStore) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len returns the number of sessions with an active flow.
func (m *MemoryFlowStore) Len() int { return m.c.ItemCount() }
