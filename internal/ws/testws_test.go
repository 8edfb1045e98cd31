package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bandroom/backend/internal/roster"
	"github.com/gorilla/websocket"
)

// testConn is one live WebSocket pair: the server side is registered with
// the gateway, the client side is read by the test.
type testConn struct {
	id     string
	server *websocket.Conn
	client *websocket.Conn
}

type fixture struct {
	roster  *roster.Roster
	hub     *Hub
	gateway *Gateway
	srv     *httptest.Server
	connCh  chan *websocket.Conn
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := roster.New()
	h := NewHub(r)
	g := NewGateway(r, h, 16, time.Second)

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		c, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		connCh <- c
	}))
	t.Cleanup(srv.Close)

	return &fixture{roster: r, hub: h, gateway: g, srv: srv, connCh: connCh}
}

// connect dials the fixture server and registers the server-side connection
// with the gateway. It mirrors what handleWS does minus the read loop, so
// tests drive dispatch and disconnect directly.
func (f *fixture) connect(t *testing.T) *testConn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	var serverConn *websocket.Conn
	select {
	case serverConn = <-f.connCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side connection")
	}

	c := f.gateway.register(serverConn)
	tc := &testConn{id: c.id, server: serverConn, client: clientConn}
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})
	return tc
}

type receivedEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (tc *testConn) readEvent(t *testing.T) receivedEvent {
	t.Helper()
	tc.client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := tc.client.ReadMessage()
	if err != nil {
		t.Fatalf("reading event on %s: %v", tc.id, err)
	}
	var ev receivedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal event %q: %v", data, err)
	}
	return ev
}

// expectEvent reads the next frame and checks its type.
func (tc *testConn) expectEvent(t *testing.T, kind EventKind) receivedEvent {
	t.Helper()
	ev := tc.readEvent(t)
	if ev.Type != string(kind) {
		t.Fatalf("received %q event on %s, want %q (payload %s)", ev.Type, tc.id, kind, ev.Payload)
	}
	return ev
}

// expectNoEvent asserts nothing arrives within a grace window. The read
// deadline poisons the connection, so call this only as the final operation
// on a testConn.
func (tc *testConn) expectNoEvent(t *testing.T) {
	t.Helper()
	tc.client.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, data, err := tc.client.ReadMessage(); err == nil {
		t.Fatalf("unexpected event on %s: %s", tc.id, data)
	}
}

func payloadField(t *testing.T, ev receivedEvent, field string) string {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(ev.Payload, &m); err != nil {
		t.Fatalf("unmarshal payload %q: %v", ev.Payload, err)
	}
	s, _ := m[field].(string)
	return s
}
