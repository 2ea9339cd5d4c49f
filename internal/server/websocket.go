package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// session is one live-compile websocket connection. Every text message is
// a template, either raw or as a CompileRequest, and is answered with a
// CompileResponse in order.
type session struct {
	id     string
	conn   *websocket.Conn
	server *Server
	send   chan []byte

	ctx    context.Context
	cancel context.CancelFunc
}

func (s *Server) upgrader() *websocket.Upgrader {
	checkOrigin := s.config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.Warn("websocket upgrade failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	sess := &session{
		id:     uuid.New().String(),
		conn:   conn,
		server: s,
		send:   make(chan []byte, 16),
		ctx:    ctx,
		cancel: cancel,
	}
	s.logger.Debug("websocket connected", zap.String("session", sess.id))

	go sess.writePump()
	sess.readPump()
}

// readPump compiles each incoming message until the peer goes away
func (c *session) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
		c.server.logger.Debug("websocket disconnected", zap.String("session", c.id))
	}()

	c.conn.SetReadLimit(c.server.config.MaxBodyBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read failed",
					zap.String("session", c.id),
					zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		reply := c.handle(message)
		select {
		case c.send <- reply:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *session) handle(message []byte) []byte {
	req := decodeMessage(message)
	m, cached, err := c.server.coordinator.Compile(c.ctx, filenameOf(req), req.Source)
	var v any
	if err != nil {
		v = errorResponse{Error: err.Error(), RequestID: c.id}
	} else {
		v = &CompileResponse{
			ID:          m.ID,
			RequestID:   c.id,
			Cached:      cached,
			Diagnostics: orEmpty(m.Diagnostics),
			Result:      m,
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(errorResponse{Error: err.Error(), RequestID: c.id})
	}
	return data
}

// decodeMessage accepts a CompileRequest object and falls back to treating
// the whole message as template source.
func decodeMessage(message []byte) *CompileRequest {
	if strings.HasPrefix(strings.TrimSpace(string(message)), "{") {
		var req CompileRequest
		if err := json.Unmarshal(message, &req); err == nil {
			return &req
		}
	}
	return &CompileRequest{Source: string(message)}
}

// writePump sends replies and keeps the connection alive with pings
func (c *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.cancel()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		}
	}
}
