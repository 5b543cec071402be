package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/transports"
	"github.com/gorilla/websocket"
)

func dialClient(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, tr *Transport, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tr.Clients() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", n, tr.Clients())
}

func readUpdate(t *testing.T, conn *websocket.Conn) transports.Update {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var u transports.Update
	if err := json.Unmarshal(msg, &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return u
}

func TestActivateMessageBecomesGesture(t *testing.T) {
	tr := New(Config{}, nil)
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	conn := dialClient(t, srv)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"activate"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case g := <-tr.Gestures():
		if g.Kind != transports.GestureActivate {
			t.Fatalf("expected activate gesture, got %q", g.Kind)
		}
		if g.Client == "" {
			t.Fatalf("expected client id on gesture")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected gesture")
	}
	select {
	case g := <-tr.Gestures():
		t.Fatalf("unexpected second gesture %+v", g)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendBroadcastsAndReplaysLatest(t *testing.T) {
	tr := New(Config{}, nil)
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	_ = tr.Send(transports.Update{Type: transports.UpdateStatus, Text: "Tap to speak..."})
	_ = tr.Send(transports.Update{Type: transports.UpdateTranscript, Text: "not replayed", Phase: transports.PhaseShow})

	conn := dialClient(t, srv)
	waitClients(t, tr, 1)
	replayed := readUpdate(t, conn)
	if replayed.Type != transports.UpdateStatus || replayed.Text != "Tap to speak..." {
		t.Fatalf("expected replayed status, got %+v", replayed)
	}

	if err := tr.Send(transports.Update{Type: transports.UpdateControl, Control: "listening"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	u := readUpdate(t, conn)
	if u.Type != transports.UpdateControl || u.Control != "listening" {
		t.Fatalf("expected control update, got %+v", u)
	}
}

func TestHealthAndDraining(t *testing.T) {
	tr := New(Config{}, nil)
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	_ = tr.Stop()
	_ = tr.Stop()
	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while draining, got %d", resp.StatusCode)
	}
	if _, ok := <-tr.Gestures(); ok {
		t.Fatalf("expected gestures channel closed")
	}
}

func TestServePage(t *testing.T) {
	tr := New(Config{ServePage: true}, nil)
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestCheckOrigin(t *testing.T) {
	tr := New(Config{AllowedOrigins: []string{"example.com", "https://app.example.org/"}}, nil)
	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://example.com", true},
		{"http://example.com/", true},
		{"https://app.example.org", true},
		{"http://app.example.org", false},
		{"https://evil.test", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := tr.checkOrigin(req); got != tc.want {
			t.Fatalf("origin %q: expected %v, got %v", tc.origin, tc.want, got)
		}
	}
}
