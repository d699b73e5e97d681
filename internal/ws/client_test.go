package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClientHandshakeAndMessages(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Session-Token"); got != "tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var filter map[string]string
		if err := conn.ReadJSON(&filter); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type_event":"`+filter["project_key"]+`"}`))
		conn.ReadMessage()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	header.Set("Session-Token", "tok")
	c := NewClient(url, header)

	got := make(chan string, 1)
	c.OnMessage = func(b []byte) { got <- string(b) }

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if err := c.SendJSON(map[string]string{"project_key": "PRJ"}); err != nil {
		t.Fatalf("SendJSON() error = %v", err)
	}

	select {
	case msg := <-got:
		if msg != `{"type_event":"PRJ"}` {
			t.Errorf("message = %q", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message")
	}
}

func TestClientHandshakeRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	err := c.Connect(context.Background())

	herr, ok := err.(*HandshakeError)
	if !ok {
		t.Fatalf("Connect() error = %v, want *HandshakeError", err)
	}
	if herr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", herr.StatusCode)
	}
}
