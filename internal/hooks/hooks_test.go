package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/soyeahso/sidekick/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func TestManager_On_And_Emit(t *testing.T) {
	m := testManager()

	var got Payload
	m.On(EventFlowStarted, "test", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), EventFlowStarted, map[string]any{"action": "create_task"})
	assert.Equal(t, EventFlowStarted, got.Event)
	assert.Equal(t, "create_task", got.Data["action"])
	assert.False(t, got.At.IsZero())
}

func TestManager_Emit_Order(t *testing.T) {
	m := testManager()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		m.On(EventMessageReceived, name, func(_ context.Context, _ Payload) error {
			order = append(order, name)
			return nil
		})
	}

	m.Emit(context.Background(), EventMessageReceived, nil)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestManager_Emit_HandlerErrorDoesNotStop(t *testing.T) {
	m := testManager()

	var secondCalled bool
	m.On(EventActionExecuted, "failing", func(_ context.Context, _ Payload) error {
		return errors.New("handler broke")
	})
	m.On(EventActionExecuted, "second", func(_ context.Context, _ Payload) error {
		secondCalled = true
		return nil
	})

	m.Emit(context.Background(), EventActionExecuted, nil)
	assert.True(t, secondCalled)
}

func TestManager_Emit_NoHandlers(t *testing.T) {
	m := testManager()
	m.Emit(context.Background(), EventGatewayStop, nil)
	m.EmitAsync(context.Background(), EventGatewayStop, nil)
	m.Wait()
}

func TestManager_Off(t *testing.T) {
	m := testManager()

	var removed, kept int
	m.On(EventFlowCancelled, "remove-me", func(_ context.Context, _ Payload) error {
		removed++
		return nil
	})
	m.On(EventFlowCancelled, "keep-me", func(_ context.Context, _ Payload) error {
		kept++
		return nil
	})

	m.Off(EventFlowCancelled, "remove-me")
	m.Emit(context.Background(), EventFlowCancelled, nil)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, kept)

	m.Off(EventFlowCancelled, "keep-me")
	assert.Equal(t, 0, m.Count(EventFlowCancelled))
	assert.Empty(t, m.Events())
}

func TestManager_EmitAsyncWait(t *testing.T) {
	m := testManager()

	var count atomic.Int32
	for _, name := range []string{"a", "b", "c"} {
		m.On(EventFlowCompleted, name, func(_ context.Context, _ Payload) error {
			time.Sleep(10 * time.Millisecond)
			count.Add(1)
			return nil
		})
	}

	m.EmitAsync(context.Background(), EventFlowCompleted, nil)
	m.Wait()
	assert.Equal(t, int32(3), count.Load())
}

func TestManager_Events(t *testing.T) {
	m := testManager()

	m.On(EventGatewayStart, "h1", func(_ context.Context, _ Payload) error { return nil })
	m.On(EventFlowStarted, "h2", func(_ context.Context, _ Payload) error { return nil })
	m.On(EventFlowStarted, "h3", func(_ context.Context, _ Payload) error { return nil })

	assert.Equal(t, []Event{EventFlowStarted, EventGatewayStart}, m.Events())
	assert.Equal(t, 2, m.Count(EventFlowStarted))
}

func TestAllEvents(t *testing.T) {
	require.Len(t, AllEvents, 9)
	assert.Contains(t, AllEvents, EventConversationCleared)
}

func TestCommandHandler(t *testing.T) {
	out := filepath.Join(t.TempDir(), "payload.json")
	h := CommandHandler("cat > "+out, time.Second)

	err := h(context.Background(), Payload{Event: EventFlowCompleted, Data: map[string]any{"action": "create_task"}})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event":"flow_completed"`)
	assert.Contains(t, string(data), `"action":"create_task"`)
}

func TestCommandHandlerFailure(t *testing.T) {
	h := CommandHandler("echo nope >&2; exit 3", 0)
	err := h(context.Background(), Payload{Event: EventGatewayStart})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}
