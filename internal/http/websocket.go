package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"budgetvoice/internal/log"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 1 << 14
)

// Inbound message types sent by the speech front end.
const (
	wsTypeTranscript = "transcript"
	wsTypeListen     = "listen"
	wsTypeCancel     = "cancel"
)

type wsInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wsOutbound struct {
	Type      string           `json:"type"`
	Text      string           `json:"text,omitempty"`
	Session   *sessionResponse `json:"session,omitempty"`
	Outcome   *outcomeResponse `json:"outcome,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg wsOutbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg.Timestamp = time.Now().UnixMilli()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// handleWebSocket is the speech channel: final transcripts and listen/cancel
// toggles come in, narration and outcomes go out.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		ServiceUnavailableError("speech channel is not configured").Write(w)
		return
	}
	logger := log.FromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "WebSocket upgrade failed", log.FieldError, err)
		return
	}
	defer conn.Close()

	atomic.AddInt64(&s.metrics.websocketSessions, 1)
	defer atomic.AddInt64(&s.metrics.websocketSessions, -1)
	logger.InfoContext(r.Context(), "WebSocket connected", log.FieldClientIP, extractClientIP(r))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws := &wsConn{conn: conn}
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	// a failed background write closes the conn so ReadJSON returns
	stop := func() {
		cancel()
		_ = conn.Close()
	}
	sub := s.hub.Subscribe()
	defer sub.Close()
	go s.forwardNarration(ctx, stop, ws, sub.C)
	go s.pingLoop(ctx, stop, ws)

	sess := toSessionResponse(s.controller.Session())
	if err := ws.send(wsOutbound{Type: "connected", Session: &sess}); err != nil {
		return
	}

	for {
		var msg wsInbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnContext(ctx, "WebSocket read failed", log.FieldError, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if err := s.handleWSMessage(ctx, ws, msg); err != nil {
			logger.DebugContext(ctx, "WebSocket write failed", log.FieldError, err)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// handleWSMessage returns only write errors; dialogue errors are reported
// to the client.
func (s *Server) handleWSMessage(ctx context.Context, ws *wsConn, msg wsInbound) error {
	switch strings.ToLower(strings.TrimSpace(msg.Type)) {
	case wsTypeListen:
		if err := s.controller.StartListening(ctx); err != nil {
			return ws.send(wsOutbound{Type: "error", Text: err.Error()})
		}
		sess := toSessionResponse(s.controller.Session())
		return ws.send(wsOutbound{Type: "session", Session: &sess})

	case wsTypeCancel:
		s.controller.Cancel(ctx)
		sess := toSessionResponse(s.controller.Session())
		return ws.send(wsOutbound{Type: "session", Session: &sess})

	case wsTypeTranscript:
		text := sanitizeInput(msg.Text)
		if text == "" {
			return ws.send(wsOutbound{Type: "error", Text: "empty transcript"})
		}
		out, err := s.runUtterance(ctx, text)
		if err != nil {
			return ws.send(wsOutbound{Type: "error", Text: err.Error()})
		}
		resp := toOutcomeResponse(out)
		return ws.send(wsOutbound{Type: "outcome", Outcome: &resp})
	}
	return ws.send(wsOutbound{Type: "error", Text: "unknown message type " + msg.Type})
}

func (s *Server) forwardNarration(ctx context.Context, stop func(), ws *wsConn, lines <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			if err := ws.send(wsOutbound{Type: "narration", Text: text}); err != nil {
				stop()
				return
			}
		}
	}
}

func (s *Server) pingLoop(ctx context.Context, stop func(), ws *wsConn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				stop()
				return
			}
		}
	}
}
