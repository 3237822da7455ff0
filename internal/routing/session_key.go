package routing

import "github.com/soyeahso/sidekick/internal/domain"

// Session scopes.
const (
	ScopePerSender = "per-sender"
	ScopePerChat   = "per-chat"
)

// ResolveSessionKey builds a session key from an inbound message and the configured scope.
//
// Scopes:
//   - "per-sender": one flow per user per chat (default)
//   - "per-chat": one flow per chat, shared by everyone in it
func ResolveSessionKey(msg domain.InboundMessage, scope string) domain.SessionKey {
	key := domain.SessionKey{
		ChannelID: msg.ChannelID,
		ChatID:    msg.ChatID,
	}
	if scope != ScopePerChat {
		key.SenderID = msg.From
	}
	return key
}
