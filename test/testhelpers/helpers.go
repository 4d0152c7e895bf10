// Package testhelpers provides shared utilities for end-to-end tests of the
// paint server: starting a hub behind httptest, dialing WebSocket clients,
// and reading protocol frames with timeouts.
package testhelpers

import (
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gopaint/internal/dispatch"
	"github.com/Tyrowin/gopaint/internal/server"
)

// FrameTimeout bounds every single-frame read in these helpers.
const FrameTimeout = 2 * time.Second

// TestServer is a running hub behind an httptest server.
type TestServer struct {
	Hub    *server.Hub
	Server *httptest.Server
	WSURL  string
}

// StartServer starts a hub and HTTP server, applying customize to a default
// config first. Both are shut down when the test ends.
func StartServer(t *testing.T, customize func(cfg *server.Config)) *TestServer {
	t.Helper()

	cfg := server.NewConfig()
	if customize != nil {
		customize(cfg)
	}
	server.SetConfig(cfg)

	hub := server.NewHub(dispatch.WithLogger(log.New(io.Discard, "", 0)))
	go hub.Run()

	ts := httptest.NewServer(server.SetupRoutes(hub))
	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(2 * time.Second)
		server.SetConfig(nil)
	})

	return &TestServer{
		Hub:    hub,
		Server: ts,
		WSURL:  "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

// Dial opens a WebSocket to the server with the given Origin header.
func (s *TestServer) Dial(origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return dialer.Dial(s.WSURL, headers)
}

// Connect opens a same-origin WebSocket and closes it when the test ends.
// It waits for a history reply, which the hub only sends once the client is
// registered, so later broadcasts are guaranteed to reach it.
func (s *TestServer) Connect(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, resp, err := s.Dial(s.Server.URL)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	Send(t, conn, "GETBUFFER")
	ExpectPrefix(t, conn, "PAINTBUFFER:")
	return conn
}

// Join connects a client, claims name and consumes the frames that follow
// its own acceptance. It returns the connection and the assigned name.
func (s *TestServer) Join(t *testing.T, name string) (*websocket.Conn, string) {
	t.Helper()

	conn := s.Connect(t)
	Send(t, conn, "USERNAME:"+name)
	accepted := ReadFrame(t, conn)
	require.True(t, strings.HasPrefix(accepted, "ACCEPTED:"), "unexpected reply %q", accepted)
	ExpectPrefix(t, conn, "USERS:")
	return conn, strings.TrimPrefix(accepted, "ACCEPTED:")
}

// Send writes one text frame.
func Send(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

// ReadFrame reads one text frame or fails the test after FrameTimeout.
func ReadFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(FrameTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

// Expect reads frames in order and requires each to equal want.
func Expect(t *testing.T, conn *websocket.Conn, want ...string) {
	t.Helper()
	for _, w := range want {
		require.Equal(t, w, ReadFrame(t, conn))
	}
}

// ExpectPrefix reads one frame and requires it to start with prefix.
func ExpectPrefix(t *testing.T, conn *websocket.Conn, prefix string) string {
	t.Helper()
	frame := ReadFrame(t, conn)
	require.True(t, strings.HasPrefix(frame, prefix), "frame %q lacks prefix %q", frame, prefix)
	return frame
}

// ExpectNoFrame requires that nothing arrives within timeout. A timed-out
// read leaves the connection unusable, so this must be the last read on conn.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no frame, got %q", string(data))
	}
}

// ExpectClosed requires the server to close the connection within timeout.
func ExpectClosed(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			t.Fatal("Expected connection to be closed")
		}
		return
	}
}
