package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const handshakeTimeout = 10 * time.Second

// rejection is a handshake failure reported to the peer before closing.
type rejection struct {
	reqID string
	shape ErrorShape
}

func (r *rejection) Error() string {
	return r.shape.Code + ": " + r.shape.Message
}

func reject(reqID, code, msg string) *rejection {
	return &rejection{reqID: reqID, shape: ErrorShape{Code: code, Message: msg}}
}

// handshake runs challenge, connect and hello on a fresh socket. A
// rejected peer gets an error response and a close frame.
func (s *Server) handshake(conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	challenge, err := NewEvent(EventChallenge, map[string]any{
		"nonce": uuid.NewString(),
		"ts":    time.Now().UnixMilli(),
	}, 0)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return nil, fmt.Errorf("sending challenge: %w", err)
	}

	var req Frame
	if err := conn.ReadJSON(&req); err != nil {
		return nil, fmt.Errorf("reading connect: %w", err)
	}

	client, err := s.admit(conn, req)
	if rj, ok := err.(*rejection); ok {
		conn.WriteJSON(NewErrorResponse(rj.reqID, rj.shape))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, rj.shape.Message))
	}
	if err != nil {
		return nil, err
	}

	resp, err := NewResponse(req.ID, s.hello(client))
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(resp); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}
	return client, nil
}

// admit checks the connect request: frame shape, protocol range, then
// credentials.
func (s *Server) admit(conn *websocket.Conn, req Frame) (*Client, error) {
	if req.Type != FrameTypeRequest || req.Method != MethodConnect {
		return nil, reject(req.ID, "protocol_error", "expected connect request")
	}

	var params ConnectParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, reject(req.ID, "invalid_params", "invalid connect params")
	}
	if params.MinProtocol > ProtocolVersion || (params.MaxProtocol != 0 && params.MaxProtocol < ProtocolVersion) {
		return nil, reject(req.ID, "protocol_mismatch", fmt.Sprintf("server speaks protocol %d", ProtocolVersion))
	}

	auth := Authorize(s.auth, params.Auth)
	if !auth.OK {
		return nil, reject(req.ID, "unauthorized", auth.Reason)
	}

	client := NewClient(conn, params.Client, auth)
	client.Locale = params.Locale

	s.log.Info().
		Str("connId", client.ConnID).
		Str("clientId", params.Client.ID).
		Str("clientVersion", params.Client.Version).
		Str("authMethod", auth.Method).
		Msg("client authenticated")
	return client, nil
}

func (s *Server) hello(client *Client) HelloOK {
	events := []string{EventChallenge}
	if s.hooks != nil {
		events = append(events, EventAssistant)
	}
	policy := ServerPolicy{MaxPayload: maxPayloadBytes}
	if s.tick > 0 {
		events = append(events, EventTick)
		policy.TickIntervalMs = int(s.tick / time.Millisecond)
	}
	return HelloOK{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: s.build.Version,
			Commit:  s.build.Commit,
			ConnID:  client.ConnID,
		},
		Features: Features{Methods: s.Methods(), Events: events},
		Policy:   policy,
	}
}
