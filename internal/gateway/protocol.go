package gateway

import (
	"encoding/json"

	"github.com/soyeahso/sidekick/internal/assistant"
	"github.com/soyeahso/sidekick/internal/domain"
)

// Protocol version supported by this server.
const ProtocolVersion = 1

// Frame types for the WebSocket protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// RPC methods.
const (
	MethodConnect        = "connect"
	MethodHealth         = "health"
	MethodSend           = "assistant.send"
	MethodSuggest        = "assistant.suggest"
	MethodReset          = "assistant.reset"
	MethodFlow           = "assistant.flow"
	MethodConfigGet      = "config.get"
	MethodConfigSet      = "config.set"
	MethodChannelsStatus = "channels.status"
	MethodPluginsList    = "plugins.list"
)

// Events pushed to clients.
const (
	EventChallenge = "connect.challenge"
	// EventAssistant relays assistant lifecycle hooks (flow started,
	// action executed, ...).
	EventAssistant = "assistant.event"
	// EventTick is a heartbeat carrying the server clock.
	EventTick = "tick"
)

// Frame is the base envelope for all WebSocket messages.
// The Type field discriminates between request, response, and event frames.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`

	// Error (response only)
	Error *ErrorShape `json:"error,omitempty"`
}

// ErrorShape is the standard error format in response frames.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ConnectParams are sent by the client in the initial "connect" request.
type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Client      ClientInfo   `json:"client"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
	Locale      string       `json:"locale,omitempty"`
}

// ClientInfo identifies the connecting host application.
type ClientInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version"`
	Platform    string `json:"platform,omitempty"`
}

// ConnectAuth carries credentials in the connect request.
type ConnectAuth struct {
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

// HelloOK is the server's response payload after successful authentication.
type HelloOK struct {
	Protocol int          `json:"protocol"`
	Server   ServerInfo   `json:"server"`
	Features Features     `json:"features"`
	Policy   ServerPolicy `json:"policy"`
}

// ServerInfo identifies the gateway server.
type ServerInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	ConnID  string `json:"connId"`
}

// Features advertises available RPC methods and events.
type Features struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// ServerPolicy communicates protocol limits to the client.
type ServerPolicy struct {
	MaxPayload     int `json:"maxPayload"`
	TickIntervalMs int `json:"tickIntervalMs"`
}

// SendParams submits one user message. SessionID names the conversation
// whose flow slot is used; it defaults to the connection ID. Context is the
// host's snapshot of the user; when nil the configured defaults apply.
type SendParams struct {
	Message   string                   `json:"message"`
	SessionID string                   `json:"sessionId,omitempty"`
	Context   *domain.AssistantContext `json:"context,omitempty"`
}

// SendResult is the response envelope plus the session it was resolved in.
type SendResult struct {
	SessionID string `json:"sessionId"`
	assistant.Response
}

// SuggestParams asks for autocomplete hints, or the welcome suggestions
// when Partial is empty.
type SuggestParams struct {
	Partial string                   `json:"partial,omitempty"`
	Context *domain.AssistantContext `json:"context,omitempty"`
}

// SessionParams names a session for reset and flow lookups.
type SessionParams struct {
	SessionID string `json:"sessionId,omitempty"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: raw,
	}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{
		Type:    FrameTypeResponse,
		ID:      id,
		OK:      &ok,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: &errShape,
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}
