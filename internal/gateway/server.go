// Package gateway exposes the assistant to host applications over a
// WebSocket RPC protocol and a small HTTP API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/sidekick/internal/assistant"
	"github.com/soyeahso/sidekick/internal/channel"
	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/hooks"
	"github.com/soyeahso/sidekick/internal/logging"
	"github.com/soyeahso/sidekick/internal/plugin"
	"github.com/soyeahso/sidekick/internal/version"
)

var ErrClientClosed = errors.New("client connection closed")

const (
	maxPayloadBytes = 1 << 20
	tickInterval    = 30 * time.Second
)

// relayedEvents are the hook events pushed to every connected client.
var relayedEvents = []hooks.Event{
	hooks.EventFlowStarted,
	hooks.EventFlowCompleted,
	hooks.EventFlowCancelled,
	hooks.EventActionExecuted,
	hooks.EventConversationCleared,
}

// Server is the Sidekick gateway HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	auth     ResolvedAuth
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	build    version.Build
	eventSeq atomic.Int64

	mu        sync.RWMutex
	configRaw map[string]any
	addr      string

	tick time.Duration

	// Optional collaborators; nil disables the matching RPC methods.
	runner   *assistant.Runner
	channels *channel.Registry
	hooks    *hooks.Manager
	plugins  *plugin.Registry

	startedAt   time.Time
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithConfigRaw sets the raw config map for RPC access.
func WithConfigRaw(raw map[string]any) ServerOption {
	return func(s *Server) {
		s.configRaw = raw
	}
}

// WithChannels sets the channel registry for channel status reporting.
func WithChannels(ch *channel.Registry) ServerOption {
	return func(s *Server) {
		s.channels = ch
	}
}

// WithHooks sets the hook manager. Assistant lifecycle events are relayed
// to the clients following their session.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithRunner sets the assistant runner serving assistant.* methods.
func WithRunner(r *assistant.Runner) ServerOption {
	return func(s *Server) {
		s.runner = r
	}
}

// WithTickInterval changes how often clients get a tick event. Zero or
// less turns ticks off.
func WithTickInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		s.tick = d
	}
}

// WithPlugins exposes the plugin registry through plugins.list.
func WithPlugins(p *plugin.Registry) ServerOption {
	return func(s *Server) {
		s.plugins = p
	}
}

// New creates a new gateway server.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		auth:        ResolveAuth(cfg.Gateway.Auth),
		log:         log.Sub("gateway"),
		clients:     NewClientRegistry(log.Sub("clients")),
		handlers:    make(map[string]RequestHandler),
		build:       version.Current(),
		tick:        tickInterval,
		configRaw:   make(map[string]any),
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerRPCHandlers()
	if s.hooks != nil {
		for _, ev := range relayedEvents {
			s.hooks.On(ev, "gateway.relay", s.relayHook)
		}
	}
	return s
}

// relayHook pushes a lifecycle event to the clients following its
// session. Events without a session go to everyone.
func (s *Server) relayHook(_ context.Context, p hooks.Payload) error {
	session, _ := p.Data["session"].(string)
	s.clients.Publish(EventAssistant, p, s.eventSeq.Add(1), session)
	return nil
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the registered RPC method names in sorted order.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.Host
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Handler returns the HTTP handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)
}

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends, then closes every client
// and drains in-flight HTTP requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	if s.cfg.Gateway.Bind != "loopback" && s.auth.Mode == AuthModeNone {
		s.log.Warn().Msg("gateway reachable from the network without authentication")
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Str("auth", s.auth.Mode).
		Int("methods", len(s.handlers)).
		Msg("gateway server ready")

	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventGatewayStart, map[string]any{
			"addr": ln.Addr().String(),
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		if s.hooks != nil {
			s.hooks.Emit(context.WithoutCancel(ctx), hooks.EventGatewayStop, nil)
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
