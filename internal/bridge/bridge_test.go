package bridge

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"graphvm/internal/vm"
)

func TestServerInterpretsOverWebSocket(t *testing.T) {
	target := vm.New(vm.DefaultConfig())
	srv := New("", target)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/interpret"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	doc := []byte(`{"nodes":[{"id":"a","type":"const","value":42}]}`)
	if err := conn.WriteMessage(websocket.TextMessage, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, resp, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var out struct {
		NodeValues map[string]interface{} `json:"node_values"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatalf("unmarshal: %v (body: %s)", err, resp)
	}
	if out.NodeValues["a"] != float64(42) {
		t.Fatalf("expected a=42, got %+v", out.NodeValues)
	}
}

func TestServerClientIDsTracksConnections(t *testing.T) {
	target := vm.New(vm.DefaultConfig())
	srv := New("", target)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/interpret"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler goroutine a moment to register the client by
	// round-tripping one message before asserting on ClientIDs.
	doc := []byte(`{"nodes":[{"id":"a","type":"literal","value":1}]}`)
	conn.WriteMessage(websocket.TextMessage, doc)
	conn.ReadMessage()

	if len(srv.ClientIDs()) != 1 {
		t.Fatalf("expected 1 connected client, got %d", len(srv.ClientIDs()))
	}
}
