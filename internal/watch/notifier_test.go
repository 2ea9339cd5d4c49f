package watch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/conduit-lang/stencil/internal/compiler/errors"
)

func connectNotifier(t *testing.T, n *Notifier) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(n.HandleWebSocket))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return n.ConnectionCount() == 1 },
		time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestNotifier_NotifyBuilding(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()
	conn := connectNotifier(t, n)

	n.NotifyBuilding([]string{"a.html"})

	e := readEvent(t, conn)
	assert.Equal(t, "building", e.Type)
	assert.Equal(t, []string{"a.html"}, e.Files)
	assert.NotZero(t, e.Timestamp)
}

func TestNotifier_NotifyResult(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()
	conn := connectNotifier(t, n)

	n.NotifyResult(&CompileResult{
		Success:  true,
		Compiled: map[string]cerrors.ErrorList{"b.html": nil, "a.html": nil},
		Removed:  []string{"old.html"},
		Duration: 5 * time.Millisecond,
	})

	removed := readEvent(t, conn)
	assert.Equal(t, "removed", removed.Type)
	assert.Equal(t, []string{"old.html"}, removed.Files)

	success := readEvent(t, conn)
	assert.Equal(t, "success", success.Type)
	assert.Equal(t, []string{"a.html", "b.html"}, success.Files)
	assert.Equal(t, float64(5), success.Duration)
}

func TestNotifier_NotifyResultErrors(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()
	conn := connectNotifier(t, n)

	diag := cerrors.New(cerrors.XVElseNoAdjacentIf, nil).WithFile("a.html")
	n.NotifyResult(&CompileResult{
		Compiled: map[string]cerrors.ErrorList{"a.html": {diag}},
		Failures: map[string]error{"b.html": errors.New("permission denied")},
	})

	e := readEvent(t, conn)
	assert.Equal(t, "error", e.Type)
	require.Len(t, e.Diagnostics, 2)
	assert.Equal(t, "X_V_ELSE_NO_ADJACENT_IF", e.Diagnostics[0].Name)
	assert.Equal(t, "b.html", e.Diagnostics[1].File)
	assert.Equal(t, "permission denied", e.Diagnostics[1].Message)
}

func TestNotifier_MultipleConnections(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()

	server := httptest.NewServer(http.HandlerFunc(n.HandleWebSocket))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
	}
	require.Eventually(t, func() bool { return n.ConnectionCount() == 3 },
		time.Second, 10*time.Millisecond)

	n.NotifyBuilding([]string{"x.html"})
	for _, conn := range conns {
		assert.Equal(t, "building", readEvent(t, conn).Type)
	}

	conns[0].Close()
	assert.Eventually(t, func() bool { return n.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)
}

func TestNotifier_OriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"https://example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.ok, localOrigin(r), tt.origin)
	}
}

func TestNotifier_CloseIsIdempotent(t *testing.T) {
	n := NewNotifier(nil)
	n.Close()
	n.Close()

	// sends after Close do not block
	done := make(chan struct{})
	go func() {
		n.NotifyBuilding(nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyBuilding blocked after Close")
	}
}
