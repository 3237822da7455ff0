package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/hooks"
	"github.com/soyeahso/sidekick/internal/logging"
)

// Turn is one user message addressed to a session.
type Turn struct {
	Session domain.SessionKey
	Text    string
	Context domain.AssistantContext
}

// sessionSemaphore is a per-session mutex that can be abandoned when the
// context ends. refs counts the turns holding or waiting on it; the entry
// is dropped when it reaches zero.
type sessionSemaphore struct {
	ch   chan struct{}
	refs int
}

func newSessionSemaphore() *sessionSemaphore {
	s := &sessionSemaphore{ch: make(chan struct{}, 1)}
	s.ch <- struct{}{}
	return s
}

// Runner threads each session's flow through the processor. It loads the
// flow slot before a turn and saves or clears it afterwards, one turn per
// session at a time.
type Runner struct {
	proc  *Processor
	store FlowStore
	hooks *hooks.Manager
	log   *logging.Logger

	mu    sync.Mutex
	locks map[string]*sessionSemaphore
}

// NewRunner creates a runner. hm may be nil.
func NewRunner(proc *Processor, store FlowStore, hm *hooks.Manager, log *logging.Logger) *Runner {
	return &Runner{
		proc:  proc,
		store: store,
		hooks: hm,
		log:   log.Sub("runner"),
		locks: make(map[string]*sessionSemaphore),
	}
}

// Processor returns the underlying processor.
func (r *Runner) Processor() *Processor { return r.proc }

// Run resolves a turn for its session.
func (r *Runner) Run(ctx context.Context, turn Turn) Response {
	start := time.Now()
	key := turn.Session.String()

	if !r.acquire(ctx, key) {
		return r.proc.reply(r.proc.msgs.Busy, nil, Trace{})
	}
	defer r.release(key)

	r.emit(ctx, hooks.EventMessageReceived, map[string]any{
		"session": key,
		"user":    turn.Context.User.ID,
		"text":    turn.Text,
	})

	active := r.load(ctx, key)
	resp := r.proc.Process(ctx, turn.Text, turn.Context, active)

	switch {
	case resp.Flow != nil:
		if err := r.store.Save(ctx, key, resp.Flow.Snapshot()); err != nil {
			r.log.Error().Err(err).Str("session", key).Msg("failed to save flow")
		}
	case active != nil:
		if err := r.store.Delete(ctx, key); err != nil {
			r.log.Error().Err(err).Str("session", key).Msg("failed to clear flow")
		}
	}

	r.emitOutcome(ctx, key, resp)

	r.log.Info().
		Str("session", key).
		Str("path", string(resp.Trace.Path)).
		Str("action", resp.Trace.Action).
		Bool("flowActive", resp.Flow != nil).
		Dur("duration", time.Since(start)).
		Msg("turn handled")
	return resp
}

// Reset drops the session's active flow, if any.
func (r *Runner) Reset(ctx context.Context, session domain.SessionKey) error {
	return r.store.Delete(ctx, session.String())
}

// Active returns the session's active flow, or nil.
func (r *Runner) Active(ctx context.Context, session domain.SessionKey) (*flow.ActiveFlow, error) {
	s, ok, err := r.store.Load(ctx, session.String())
	if err != nil || !ok {
		return nil, err
	}
	return flow.Restore(s, r.proc.Flows())
}

func (r *Runner) load(ctx context.Context, key string) *flow.ActiveFlow {
	s, ok, err := r.store.Load(ctx, key)
	if err != nil {
		r.log.Error().Err(err).Str("session", key).Msg("failed to load flow")
		return nil
	}
	if !ok {
		return nil
	}
	f, err := flow.Restore(s, r.proc.Flows())
	if err != nil {
		r.log.Warn().Err(err).Str("session", key).Msg("dropping unrecoverable flow")
		if err := r.store.Delete(ctx, key); err != nil {
			r.log.Error().Err(err).Str("session", key).Msg("failed to clear flow")
		}
		return nil
	}
	return f
}

func (r *Runner) emitOutcome(ctx context.Context, key string, resp Response) {
	t := resp.Trace
	data := func() map[string]any {
		return map[string]any{"session": key, "action": t.Action, "category": t.Category}
	}

	if t.FlowStart {
		r.emit(ctx, hooks.EventFlowStarted, data())
	}
	switch t.FlowState {
	case flow.StateCompleted:
		if t.Executed {
			r.emit(ctx, hooks.EventFlowCompleted, data())
		}
	case flow.StateCancelled:
		r.emit(ctx, hooks.EventFlowCancelled, data())
	}
	if t.Executed {
		d := data()
		d["success"] = t.Success
		r.emit(ctx, hooks.EventActionExecuted, d)
	}
	if resp.Kind == KindClearConversation {
		r.emit(ctx, hooks.EventConversationCleared, data())
	}

	d := data()
	d["text"] = resp.Message.Content
	r.emit(ctx, hooks.EventMessageSending, d)
}

func (r *Runner) emit(ctx context.Context, event hooks.Event, data map[string]any) {
	if r.hooks == nil {
		return
	}
	r.hooks.EmitAsync(context.WithoutCancel(ctx), event, data)
}

func (r *Runner) acquire(ctx context.Context, key string) bool {
	r.mu.Lock()
	sem, ok := r.locks[key]
	if !ok {
		sem = newSessionSemaphore()
		r.locks[key] = sem
	}
	sem.refs++
	r.mu.Unlock()

	select {
	case <-sem.ch:
		return true
	case <-ctx.Done():
		r.unref(key, sem)
		return false
	}
}

func (r *Runner) release(key string) {
	r.mu.Lock()
	sem, ok := r.locks[key]
	r.mu.Unlock()
	if !ok {
		return
	}
	sem.ch <- struct{}{}
	r.unref(key, sem)
}

func (r *Runner) unref(key string, sem *sessionSemaphore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sem.refs--
	if sem.refs == 0 && r.locks[key] == sem {
		delete(r.locks, key)
	}
}

// lockCount returns the number of sessions with a turn running or queued.
func (r *Runner) lockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
