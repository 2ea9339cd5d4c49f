package watch

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/stencil/internal/compiler/errors"
)

// Notifier pushes build events to websocket clients, such as an editor
// extension or a browser preview
type Notifier struct {
	connections map[*websocket.Conn]bool
	broadcast   chan *Event
	register    chan *websocket.Conn
	unregister  chan *websocket.Conn
	done        chan struct{}
	closeOnce   sync.Once
	mutex       sync.RWMutex
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// Event is one message sent to clients
type Event struct {
	Type        string            `json:"type"` // "building", "success", "error", "removed"
	Timestamp   int64             `json:"timestamp"`
	Files       []string          `json:"files,omitempty"`
	Duration    float64           `json:"duration,omitempty"` // milliseconds
	Diagnostics cerrors.ErrorList `json:"diagnostics,omitempty"`
}

// NewNotifier creates a notifier accepting connections from localhost only
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan *Event, 256),
		register:    make(chan *websocket.Conn),
		unregister:  make(chan *websocket.Conn),
		done:        make(chan struct{}),
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     localOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	go n.run()

	return n
}

func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}

func (n *Notifier) run() {
	for {
		select {
		case <-n.done:
			return

		case conn := <-n.register:
			n.mutex.Lock()
			n.connections[conn] = true
			count := len(n.connections)
			n.mutex.Unlock()
			n.logger.Debug("notify client connected", zap.Int("clients", count))

		case conn := <-n.unregister:
			n.mutex.Lock()
			if _, ok := n.connections[conn]; ok {
				delete(n.connections, conn)
				conn.Close()
			}
			count := len(n.connections)
			n.mutex.Unlock()
			n.logger.Debug("notify client disconnected", zap.Int("clients", count))

		case event := <-n.broadcast:
			n.sendToAll(event)
		}
	}
}

func (n *Notifier) sendToAll(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	n.mutex.RLock()
	var failed []*websocket.Conn
	for conn := range n.connections {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			n.logger.Debug("failed to send event", zap.Error(err))
			failed = append(failed, conn)
		}
	}
	n.mutex.RUnlock()

	if len(failed) > 0 {
		n.mutex.Lock()
		for _, conn := range failed {
			if _, ok := n.connections[conn]; ok {
				conn.Close()
				delete(n.connections, conn)
			}
		}
		n.mutex.Unlock()
	}
}

// HandleWebSocket upgrades a request into a notify connection
func (n *Notifier) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	select {
	case n.register <- conn:
	case <-n.done:
		conn.Close()
		return
	}

	go n.readMessages(conn)
}

// readMessages drains the client so pings and close frames are handled
func (n *Notifier) readMessages(conn *websocket.Conn) {
	defer func() {
		select {
		case n.unregister <- conn:
		case <-n.done:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				n.logger.Debug("notify connection error", zap.Error(err))
			}
			return
		}
	}
}

func (n *Notifier) send(event *Event) {
	event.Timestamp = time.Now().Unix()
	select {
	case n.broadcast <- event:
	case <-n.done:
	}
}

// NotifyBuilding announces a rebuild of files
func (n *Notifier) NotifyBuilding(files []string) {
	n.send(&Event{Type: "building", Files: files})
}

// NotifyResult announces the outcome of a rebuild. Any error makes it an
// "error" event carrying every diagnostic.
func (n *Notifier) NotifyResult(result *CompileResult) {
	if len(result.Removed) > 0 {
		n.send(&Event{Type: "removed", Files: result.Removed})
	}

	files := sortedKeys(result.Compiled)
	diags := result.Diagnostics()
	if !result.Success {
		for path, err := range result.Failures {
			diags = append(diags, &cerrors.CompilerError{
				Name:     "IO_ERROR",
				Severity: cerrors.SeverityError,
				Message:  err.Error(),
				File:     path,
			})
		}
		n.send(&Event{Type: "error", Files: files, Diagnostics: diags})
		return
	}
	n.send(&Event{
		Type:        "success",
		Files:       files,
		Duration:    float64(result.Duration.Milliseconds()),
		Diagnostics: diags,
	})
}

// ConnectionCount returns the number of active connections
func (n *Notifier) ConnectionCount() int {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return len(n.connections)
}

// Close closes all connections and stops the notifier
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.done)

		n.mutex.Lock()
		defer n.mutex.Unlock()
		for conn := range n.connections {
			conn.Close()
		}
		n.connections = make(map[*websocket.Conn]bool)
	})
}
