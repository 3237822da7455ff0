package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/logging"
)

func testLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// fakeConn records written frames and replays queued reads.
type fakeConn struct {
	mu       sync.Mutex
	written  []Frame
	reads    [][]byte
	writeErr error
	closed   bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reads) == 0 {
		return 0, nil, io.EOF
	}
	msg := f.reads[0]
	f.reads = f.reads[1:]
	return 1, msg, nil
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, v.(Frame))
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frames() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Frame(nil), f.written...)
}

func TestClientSendAndRespond(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, ClientInfo{ID: "host"}, AuthResult{OK: true, Method: AuthModeToken})
	assert.NotEmpty(t, c.ConnID)

	require.NoError(t, c.Respond("r1", map[string]int{"n": 1}))
	require.NoError(t, c.RespondError("r2", ErrorShape{Code: "bad", Message: "nope"}))

	frames := conn.frames()
	require.Len(t, frames, 2)
	assert.Equal(t, "r1", frames[0].ID)
	assert.True(t, *frames[0].OK)
	assert.JSONEq(t, `{"n":1}`, string(frames[0].Payload))
	assert.False(t, *frames[1].OK)
	assert.Equal(t, "bad", frames[1].Error.Code)
}

func TestClientReadFrame(t *testing.T) {
	req, err := NewRequest("r1", MethodHealth, nil)
	require.NoError(t, err)
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	conn := &fakeConn{reads: [][]byte{raw, []byte("{not json")}}
	c := NewClient(conn, ClientInfo{}, AuthResult{})

	f, err := c.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, MethodHealth, f.Method)

	_, err = c.ReadFrame()
	assert.Error(t, err)

	_, err = c.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestClientCloseOnce(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, ClientInfo{}, AuthResult{})

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.True(t, conn.closed)

	err := c.SendEvent(EventAssistant, map[string]any{"x": 1}, 1)
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestClientFollow(t *testing.T) {
	c := &Client{ConnID: "conn-1"}
	assert.False(t, c.Follows("gateway:a"))

	c.Follow("gateway:a")
	assert.True(t, c.Follows("gateway:a"))
	assert.False(t, c.Follows("gateway:b"))
}

func TestClientRegistryLifecycle(t *testing.T) {
	reg := NewClientRegistry(testLog())
	assert.Equal(t, 0, reg.Count())

	reg.Add(&Client{ConnID: "conn-1", Info: ClientInfo{ID: "client-1"}})
	reg.Add(&Client{ConnID: "conn-2"})
	assert.Equal(t, 2, reg.Count())

	got, ok := reg.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "client-1", got.Info.ID)

	reg.Remove("conn-1")
	reg.Remove("nonexistent")
	_, ok = reg.Get("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Count())
}

func TestClientRegistryPublish(t *testing.T) {
	reg := NewClientRegistry(testLog())

	alice, bob, broken := &fakeConn{}, &fakeConn{}, &fakeConn{writeErr: errors.New("broken pipe")}
	ca := NewClient(alice, ClientInfo{ID: "a"}, AuthResult{})
	cb := NewClient(bob, ClientInfo{ID: "b"}, AuthResult{})
	cx := NewClient(broken, ClientInfo{ID: "x"}, AuthResult{})
	ca.Follow("gateway:board")
	cx.Follow("gateway:board")
	for _, c := range []*Client{ca, cb, cx} {
		reg.Add(c)
	}

	t.Run("session scoped", func(t *testing.T) {
		n := reg.Publish(EventAssistant, map[string]string{"event": "flow_started"}, 1, "gateway:board")
		assert.Equal(t, 1, n, "the broken follower is skipped")
		assert.Len(t, alice.frames(), 1)
		assert.Empty(t, bob.frames())
	})

	t.Run("everyone", func(t *testing.T) {
		n := reg.Publish(EventAssistant, nil, 2, "")
		assert.Equal(t, 2, n)
		frames := bob.frames()
		require.Len(t, frames, 1)
		assert.Equal(t, FrameTypeEvent, frames[0].Type)
		assert.Equal(t, int64(2), frames[0].Seq)
	})
}

func TestClientRegistryCloseAll(t *testing.T) {
	reg := NewClientRegistry(testLog())
	c1, c2 := &fakeConn{}, &fakeConn{}
	reg.Add(NewClient(c1, ClientInfo{}, AuthResult{}))
	reg.Add(NewClient(c2, ClientInfo{}, AuthResult{}))

	reg.CloseAll()
	assert.Equal(t, 0, reg.Count())
	assert.True(t, c1.closed)
	assert.True(t, c2.closed)
}

func TestResolveBindAddr_Host(t *testing.T) {
	tests := []struct {
		name string
		bind string
		host string
		want string
	}{
		{"custom_default", "custom", "", "0.0.0.0:3000"},
		{"custom_host", "custom", "10.0.0.1", "10.0.0.1:3000"},
		{"custom_ipv6", "custom", "::1", "[::1]:3000"},
		{"host_ignored_on_loopback", "loopback", "10.0.0.1", "127.0.0.1:3000"},
		{"empty_fallback", "", "", "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GatewayConfig{Bind: tt.bind, Port: 3000, Host: tt.host}
			assert.Equal(t, tt.want, resolveBindAddr(cfg))
		})
	}
}
