// Package routing connects messaging channels to the assistant runner.
package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/soyeahso/sidekick/internal/assistant"
	"github.com/soyeahso/sidekick/internal/channel"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/logging"
)

// Config describes the context chat users get. Chat channels carry no
// permissions of their own, so every sender is granted Permissions.
type Config struct {
	Scope       string
	Permissions []string
	DefaultPage string
	Locale      string

	// Idle is how long a session's last page is remembered. Zero keeps it
	// until the conversation is cleared.
	Idle time.Duration
}

// Router routes inbound messages to the assistant and replies to channels.
type Router struct {
	channels *channel.Registry
	runner   *assistant.Runner
	cfg      Config
	log      *logging.Logger

	pages *cache.Cache // session key -> last page navigated to
	wg    sync.WaitGroup
}

// NewRouter creates a message router.
func NewRouter(channels *channel.Registry, runner *assistant.Runner, cfg Config, log *logging.Logger) *Router {
	if cfg.Scope == "" {
		cfg.Scope = ScopePerSender
	}
	return &Router{
		channels: channels,
		runner:   runner,
		cfg:      cfg,
		log:      log.Sub("routing"),
		pages:    newPageCache(cfg.Idle),
	}
}

func newPageCache(idle time.Duration) *cache.Cache {
	if idle <= 0 {
		return cache.New(cache.NoExpiration, 0)
	}
	return cache.New(idle, idle)
}

// Context builds the assistant context for a message of the given session.
// The current page is the last page the session navigated to.
func (r *Router) Context(msg domain.InboundMessage, key domain.SessionKey) domain.AssistantContext {
	page := r.cfg.DefaultPage
	if v, ok := r.pages.Get(key.String()); ok {
		page = v.(string)
	}
	return domain.AssistantContext{
		User:        domain.User{ID: msg.From, Name: msg.FromName},
		CurrentPage: page,
		Group:       msg.ChatID,
		Permissions: r.cfg.Permissions,
		Locale:      r.cfg.Locale,
	}
}

// HandleInbound resolves an inbound message and sends the reply back
// through the originating channel.
func (r *Router) HandleInbound(ctx context.Context, msg domain.InboundMessage) {
	r.log.Info().
		Str("channel", msg.ChannelID).
		Str("from", msg.From).
		Str("chatId", msg.ChatID).
		Str("chatType", string(msg.ChatType)).
		Msg("routing inbound message")

	if r.runner == nil {
		r.log.Warn().Msg("no assistant runner configured, dropping message")
		return
	}

	key := ResolveSessionKey(msg, r.cfg.Scope)
	resp := r.runner.Run(ctx, assistant.Turn{
		Session: key,
		Text:    msg.Body,
		Context: r.Context(msg, key),
	})
	r.track(key, resp)

	reply := domain.OutboundMessage{
		ChannelID: msg.ChannelID,
		To:        replyTarget(msg),
		Body:      RenderText(resp),
	}
	if err := r.channels.Send(ctx, reply); err != nil {
		r.log.Error().Err(err).
			Str("channel", msg.ChannelID).
			Str("to", reply.To).
			Msg("failed to send reply")
		return
	}

	r.log.Info().
		Str("channel", msg.ChannelID).
		Str("to", reply.To).
		Str("kind", string(resp.Kind)).
		Bool("flowActive", resp.HasFlow()).
		Msg("reply sent")
}

func (r *Router) track(key domain.SessionKey, resp assistant.Response) {
	k := key.String()
	switch {
	case resp.Kind == assistant.KindClearConversation:
		r.pages.Delete(k)
	case resp.NavigateTo == r.cfg.DefaultPage && resp.NavigateTo != "":
		r.pages.Delete(k)
	case resp.NavigateTo != "":
		r.pages.Set(k, resp.NavigateTo, cache.DefaultExpiration)
	default:
		// Any turn keeps the session's page alive.
		if v, ok := r.pages.Get(k); ok {
			r.pages.Set(k, v, cache.DefaultExpiration)
		}
	}
}

// TrackedPages returns how many sessions have a remembered page.
func (r *Router) TrackedPages() int { return r.pages.ItemCount() }

// Wire registers the router as the message handler on all channels. Each
// message is handled on its own goroutine; Wait blocks until they finish.
func (r *Router) Wire(ctx context.Context) {
	r.channels.OnMessage(func(msg domain.InboundMessage) {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.HandleInbound(ctx, msg)
		}()
	})
}

// Wait blocks until every in-flight message has been handled.
func (r *Router) Wait() {
	r.wg.Wait()
}

// replyTarget determines where to send the response.
func replyTarget(msg domain.InboundMessage) string {
	if msg.ChatType == domain.ChatTypeDM {
		return msg.From
	}
	return msg.ChatID
}

// SendTo sends a message to a specific channel.
func (r *Router) SendTo(ctx context.Context, channelID, target, body string) error {
	if channelID == "" || target == "" {
		return fmt.Errorf("channel and target are required")
	}
	return r.channels.Send(ctx, domain.OutboundMessage{
		ChannelID: channelID,
		To:        target,
		Body:      body,
	})
}
