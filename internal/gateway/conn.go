package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// handleWebSocket upgrades the request and serves the connection until
// either side closes it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	remote := r.RemoteAddr
	if !s.authLimiter.allow(remote) {
		s.log.Warn().Str("remote", remote).Msg("rate limited, too many failed auth attempts")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxPayloadBytes)

	client, err := s.handshake(conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", remote).Msg("handshake failed")
		s.authLimiter.recordFailure(remote)
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if s.tick > 0 {
		go s.tickLoop(ctx, client)
	}
	s.readLoop(ctx, client)
}

// tickLoop sends heartbeats until ctx ends or a write fails.
func (s *Server) tickLoop(ctx context.Context, client *Client) {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if err := client.SendEvent(EventTick, map[string]int64{"ts": now.UnixMilli()}, 0); err != nil {
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, client *Client) {
	for {
		frame, err := client.ReadFrame()
		switch {
		case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			return
		case err != nil:
			s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			return
		case frame.Type != FrameTypeRequest:
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}
		s.dispatch(ctx, client, frame)
	}
}

func (s *Server) dispatch(ctx context.Context, client *Client, frame Frame) {
	rc := &RequestContext{Ctx: ctx, Client: client, Frame: frame, Server: s}
	handler, ok := s.handlers[frame.Method]
	if !ok {
		rc.reply(nil, newAPIError(http.StatusNotFound, "method_not_found", "unknown method: "+frame.Method))
		return
	}
	rc.reply(handler(rc))
}
