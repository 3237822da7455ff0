package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/sidekick/internal/assistant"
	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/domain"
)

// ChannelID is the session channel of turns submitted through the gateway.
const ChannelID = "gateway"

// sendTimeout bounds one assistant turn.
const sendTimeout = 30 * time.Second

// safeConfigPrefixes lists config path prefixes that can be read and
// written via RPC. All other paths are denied by default (allowlist).
var safeConfigPrefixes = []string{
	"assistant.name",
	"assistant.thinkingDelayMs",
	"assistant.defaultPage",
	"assistant.locale",
	"assistant.vocabulary",
	"gateway.port",
	"gateway.bind",
	"logging",
	"session.scope",
	"session.idleMinutes",
}

func isAllowedConfigPath(key string) bool {
	for _, prefix := range safeConfigPrefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /api/message", s.handleMessage)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle(MethodHealth, s.rpcHealth)
	s.Handle(MethodConfigGet, s.rpcConfigGet)
	s.Handle(MethodConfigSet, s.rpcConfigSet)
	s.Handle(MethodChannelsStatus, s.rpcChannelsStatus)
	s.Handle(MethodPluginsList, s.rpcPluginsList)
	s.Handle(MethodSend, s.withRunner(s.rpcSend))
	s.Handle(MethodSuggest, s.withRunner(s.rpcSuggest))
	s.Handle(MethodReset, s.withRunner(s.rpcReset))
	s.Handle(MethodFlow, s.withRunner(s.rpcFlow))
}

// resolveContext fills what the host left out of a context from the
// configured defaults.
func (s *Server) resolveContext(actx *domain.AssistantContext, user domain.User, locale string) domain.AssistantContext {
	var out domain.AssistantContext
	if actx != nil {
		out = *actx
	}
	if out.User.ID == "" {
		out.User = user
	}
	if out.Permissions == nil {
		out.Permissions = s.cfg.Assistant.DefaultPermissions
	}
	if out.CurrentPage == "" {
		out.CurrentPage = s.cfg.Assistant.DefaultPage
	}
	if out.Locale == "" {
		out.Locale = locale
	}
	if out.Locale == "" {
		out.Locale = s.cfg.Assistant.Locale
	}
	return out
}

func sessionKey(sessionID string) domain.SessionKey {
	return domain.SessionKey{ChannelID: ChannelID, ChatID: sessionID}
}

// send runs one turn and wraps the response with its session.
func (s *Server) send(ctx context.Context, p SendParams, sessionID string, actx domain.AssistantContext) SendResult {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp := s.runner.Run(ctx, assistant.Turn{
		Session: sessionKey(sessionID),
		Text:    p.Message,
		Context: actx,
	})
	return SendResult{SessionID: sessionID, Response: resp}
}

// handleMessage is the HTTP equivalent of assistant.send for hosts that do
// not keep a socket open. Credentials go in "Authorization: Bearer".
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if res := Authorize(s.auth, bearerAuth(r)); !res.OK {
		s.authLimiter.recordFailure(r.RemoteAddr)
		writeError(w, newAPIError(http.StatusUnauthorized, "unauthorized", res.Reason))
		return
	}
	if s.runner == nil {
		writeError(w, errNoAssistant)
		return
	}

	var p SendParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&p); err != nil {
		writeError(w, invalidParams(err.Error()))
		return
	}
	if err := p.validate(); err != nil {
		writeError(w, err)
		return
	}
	if p.SessionID == "" {
		writeError(w, invalidParams("sessionId is required"))
		return
	}

	actx := s.resolveContext(p.Context, domain.User{}, "")
	writeJSON(w, http.StatusOK, s.send(r.Context(), p, p.SessionID, actx))
}

func (p SendParams) validate() error {
	if strings.TrimSpace(p.Message) == "" {
		return invalidParams("message is required")
	}
	return nil
}

func (rc *RequestContext) user() domain.User {
	return domain.User{ID: rc.Client.Info.ID, Name: rc.Client.Info.DisplayName}
}

// session names the conversation a call addresses, the connection's own
// by default.
func (rc *RequestContext) session(id string) string {
	if id == "" {
		return rc.Client.ConnID
	}
	return id
}

func (s *Server) rpcHealth(*RequestContext) (any, error) {
	h := HealthResponse{
		Status:  "ok",
		Version: s.build.Version,
		Clients: s.clients.Count(),
	}
	if s.channels != nil {
		h.Channels = s.channels.Count()
	}
	if !s.startedAt.IsZero() {
		h.UptimeMs = time.Since(s.startedAt).Milliseconds()
	}
	return h, nil
}

// withRunner guards the assistant.* methods.
func (s *Server) withRunner(h RequestHandler) RequestHandler {
	return func(rc *RequestContext) (any, error) {
		if s.runner == nil {
			return nil, errNoAssistant
		}
		return h(rc)
	}
}

func (s *Server) rpcSend(rc *RequestContext) (any, error) {
	var p SendParams
	if err := rc.Params(&p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	id := rc.session(p.SessionID)
	rc.Client.Follow(sessionKey(id).String())

	actx := s.resolveContext(p.Context, rc.user(), rc.Client.Locale)
	return s.send(rc.Ctx, p, id, actx), nil
}

func (s *Server) rpcSuggest(rc *RequestContext) (any, error) {
	var p SuggestParams
	if err := rc.Params(&p); err != nil {
		return nil, err
	}

	actx := s.resolveContext(p.Context, rc.user(), rc.Client.Locale)
	proc := s.runner.Processor()
	suggestions := proc.Welcome(actx)
	if strings.TrimSpace(p.Partial) != "" {
		suggestions = proc.Autocomplete(p.Partial, actx)
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}
	return map[string]any{"suggestions": suggestions}, nil
}

func (s *Server) rpcReset(rc *RequestContext) (any, error) {
	var p SessionParams
	if err := rc.Params(&p); err != nil {
		return nil, err
	}
	id := rc.session(p.SessionID)
	if err := s.runner.Reset(rc.Ctx, sessionKey(id)); err != nil {
		return nil, storeError(err)
	}
	return map[string]any{"sessionId": id, "reset": true}, nil
}

func (s *Server) rpcFlow(rc *RequestContext) (any, error) {
	var p SessionParams
	if err := rc.Params(&p); err != nil {
		return nil, err
	}
	id := rc.session(p.SessionID)
	active, err := s.runner.Active(rc.Ctx, sessionKey(id))
	if err != nil {
		return nil, storeError(err)
	}
	return map[string]any{"sessionId": id, "flow": active}, nil
}

type configParams struct {
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
}

// configKey validates a config.get/config.set key against the allowlist.
func configKey(rc *RequestContext, p *configParams, denied string) ([]string, error) {
	if err := rc.Params(p); err != nil {
		return nil, err
	}
	if p.Key == "" {
		return nil, invalidParams("key is required")
	}
	if !isAllowedConfigPath(p.Key) {
		return nil, forbidden(denied + p.Key)
	}
	path, err := config.ParseConfigPath(p.Key)
	if err != nil {
		return nil, invalidParams(err.Error())
	}
	return path, nil
}

func (s *Server) rpcConfigGet(rc *RequestContext) (any, error) {
	var p configParams
	path, err := configKey(rc, &p, "access denied for config path: ")
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	val, ok := config.GetValueAtPath(s.configRaw, path)
	s.mu.RUnlock()
	if !ok {
		return nil, notFound("key not found: " + p.Key)
	}
	return map[string]any{"key": p.Key, "value": val}, nil
}

// rpcConfigSet edits the in-memory raw config. Changes take effect on the
// next start.
func (s *Server) rpcConfigSet(rc *RequestContext) (any, error) {
	var p configParams
	path, err := configKey(rc, &p, "cannot modify config path: ")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	config.SetValueAtPath(s.configRaw, path, p.Value)
	s.mu.Unlock()
	return map[string]any{"key": p.Key, "value": p.Value}, nil
}

func (s *Server) rpcChannelsStatus(*RequestContext) (any, error) {
	if s.channels == nil {
		return map[string]any{"channels": []any{}}, nil
	}
	return map[string]any{"channels": s.channels.Status()}, nil
}

func (s *Server) rpcPluginsList(*RequestContext) (any, error) {
	if s.plugins == nil {
		return map[string]any{"plugins": []any{}}, nil
	}
	return map[string]any{"plugins": s.plugins.Info()}, nil
}
