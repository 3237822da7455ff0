package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/soyeahso/sidekick/internal/catalogue"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/hooks"
	"github.com/soyeahso/sidekick/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

type eventLog struct {
	mu     sync.Mutex
	events []hooks.Event
	data   []map[string]any
}

func (l *eventLog) handler(_ context.Context, p hooks.Payload) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, p.Event)
	l.data = append(l.data, p.Data)
	return nil
}

func (l *eventLog) has(e hooks.Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, x := range l.events {
		if x == e {
			return true
		}
	}
	return false
}

func testRunner(t *testing.T) (*Runner, *Stack, *MemoryFlowStore, *hooks.Manager, *eventLog) {
	t.Helper()
	log := logging.New(nil, "silent")
	s := testStack(t)
	store := NewMemoryFlowStore(0)
	hm := hooks.NewManager(log)
	events := &eventLog{}
	for _, e := range hooks.AllEvents {
		hm.On(e, "test", events.handler)
	}
	return NewRunner(s.Processor, store, hm, log), s, store, hm, events
}

var alice = domain.SessionKey{ChannelID: "web", ChatID: "c1", SenderID: "alice"}

func TestRunnerPersistsFlowAcrossTurns(t *testing.T) {
	r, s, store, hm, events := testRunner(t)
	rec := &recorder{}
	s.Executor.Register(catalogue.ActionCreateProject, rec.invoker(domain.ActionResult{Success: true, Message: "Projet créé."}, nil))
	ctx := context.Background()
	turn := func(text string) Response {
		return r.Run(ctx, Turn{Session: alice, Text: text, Context: everyone()})
	}

	resp := turn("Créer un projet")
	require.NotNil(t, resp.Flow)
	assert.Equal(t, 1, store.Len())

	active, err := r.Active(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, catalogue.ActionCreateProject, active.Action)

	turn("Refonte du site")
	turn("passer")
	resp = turn("oui")
	assert.Nil(t, resp.Flow)
	assert.Equal(t, "Projet créé.", resp.Message.Content)
	assert.Equal(t, 0, store.Len())

	require.Len(t, rec.calls, 1)
	assert.Equal(t, map[string]string{"name": "Refonte du site", "description": ""}, rec.calls[0].Params)

	hm.Wait()
	for _, e := range []hooks.Event{
		hooks.EventMessageReceived,
		hooks.EventFlowStarted,
		hooks.EventFlowCompleted,
		hooks.EventActionExecuted,
		hooks.EventMessageSending,
	} {
		assert.True(t, events.has(e), "missing event %s", e)
	}
	assert.False(t, events.has(hooks.EventFlowCancelled))
}

func TestRunnerSessionsAreIndependent(t *testing.T) {
	r, _, store, hm, _ := testRunner(t)
	ctx := context.Background()
	bob := domain.SessionKey{ChannelID: "web", ChatID: "c1", SenderID: "bob"}

	r.Run(ctx, Turn{Session: alice, Text: "Créer une tâche", Context: everyone()})
	resp := r.Run(ctx, Turn{Session: bob, Text: "Bonjour", Context: everyone()})
	assert.Nil(t, resp.Flow)
	assert.Equal(t, 1, store.Len())

	resp = r.Run(ctx, Turn{Session: alice, Text: "Rapport", Context: everyone()})
	require.NotNil(t, resp.Flow)
	assert.Equal(t, 1, resp.Flow.CurrentStepIndex)
	hm.Wait()
}

func TestRunnerCancelAndClear(t *testing.T) {
	r, _, store, hm, events := testRunner(t)
	ctx := context.Background()
	run := func(text string) Response {
		return r.Run(ctx, Turn{Session: alice, Text: text, Context: everyone()})
	}

	run(`Nouveau projet "X"`)
	run("passer")
	resp := run("annuler")
	assert.Nil(t, resp.Flow)
	assert.Equal(t, 0, store.Len())

	resp = run("/clear")
	assert.Equal(t, KindClearConversation, resp.Kind)

	hm.Wait()
	assert.True(t, events.has(hooks.EventFlowCancelled))
	assert.True(t, events.has(hooks.EventConversationCleared))
}

func TestRunnerReset(t *testing.T) {
	r, _, store, hm, _ := testRunner(t)
	ctx := context.Background()

	r.Run(ctx, Turn{Session: alice, Text: "Planifier une réunion", Context: everyone()})
	require.Equal(t, 1, store.Len())

	require.NoError(t, r.Reset(ctx, alice))
	assert.Equal(t, 0, store.Len())

	active, err := r.Active(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, active)
	hm.Wait()
}

func TestRunnerDropsUnknownFlow(t *testing.T) {
	r, _, store, _, _ := testRunner(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, alice.String(), flow.Snapshot{Action: "retired_flow", StepIndex: 1}))

	resp := r.Run(ctx, Turn{Session: alice, Text: "Bonjour", Context: everyone()})
	assert.Nil(t, resp.Flow)
	assert.Equal(t, PathIntent, resp.Trace.Path)
	assert.Equal(t, 0, store.Len())
	r.hooks.Wait()
}

func TestRunnerBusySession(t *testing.T) {
	r, _, _, _, _ := testRunner(t)
	require.True(t, r.acquire(context.Background(), alice.String()))
	defer r.release(alice.String())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	resp := r.Run(ctx, Turn{Session: alice, Text: "Bonjour", Context: everyone()})
	assert.Equal(t, DefaultMessages().Busy, resp.Message.Content)
	assert.Equal(t, 1, r.lockCount())
}

func TestRunnerForgetsFinishedSessions(t *testing.T) {
	r, _, _, _, _ := testRunner(t)
	ctx := context.Background()

	for i := range 200 {
		key := domain.SessionKey{ChannelID: "gateway", ChatID: fmt.Sprintf("conn-%d", i)}
		r.Run(ctx, Turn{Session: key, Text: "Bonjour", Context: everyone()})
	}
	assert.Zero(t, r.lockCount())
	r.hooks.Wait()
}

func TestRunnerSerialisesSession(t *testing.T) {
	r, _, _, _, _ := testRunner(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			r.Run(ctx, Turn{Session: alice, Text: "Bonjour", Context: everyone()})
		})
	}
	wg.Wait()
	assert.Zero(t, r.lockCount())
	r.hooks.Wait()
}

func TestRunnerWithoutHooks(t *testing.T) {
	s := testStack(t)
	r := NewRunner(s.Processor, NewMemoryFlowStore(0), nil, logging.New(nil, "silent"))
	resp := r.Run(context.Background(), Turn{Session: alice, Text: "Bonjour", Context: everyone()})
	assert.NotEmpty(t, resp.Message.Content)
}

func TestMemoryFlowStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryFlowStore(time.Hour)

	_, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	snap := flow.Snapshot{Action: "create_task", StepIndex: 1, Collected: map[string]string{"title": "A"}}
	require.NoError(t, store.Save(ctx, "k", snap))
	snap.Collected["title"] = "mutated"

	got, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", got.Collected["title"])

	got.Collected["title"] = "again"
	again, _, _ := store.Load(ctx, "k")
	assert.Equal(t, "A", again.Collected["title"])

	require.NoError(t, store.Delete(ctx, "k"))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryFlowStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryFlowStore(10 * time.Millisecond)
	require.NoError(t, store.Save(ctx, "k", flow.Snapshot{Action: "create_task"}))

	time.Sleep(30 * time.Millisecond)
	_, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
