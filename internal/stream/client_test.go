package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestClientReadsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Session-Token"); got != "tok" {
			t.Errorf("Session-Token = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": ping\n\n")
		fmt.Fprint(w, "data: {\"type_event\":\"a\"}\n\n")
		fmt.Fprint(w, "data: {\"type_event\":\n")
		fmt.Fprint(w, "data: \"b\"}\n\n")
		fmt.Fprint(w, "{\"type_event\":\"c\"}\n")
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("Session-Token", "tok")
	c := NewClient(server.URL, nil, header)

	var mu sync.Mutex
	var got []string
	c.OnMessage = func(b []byte) {
		mu.Lock()
		got = append(got, string(b))
		mu.Unlock()
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream not closed")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{`{"type_event":"a"}`, "{\"type_event\":\n\"b\"}", `{"type_event":"c"}`}
	if len(got) != len(want) {
		t.Fatalf("messages = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClientRejectsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)
	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("Connect() error = nil")
	}
}

func TestClientCloseIsQuiet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)
	var errs int
	c.OnError = func(error) { errs++ }
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	c.Close()

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream not closed")
	}
	if errs != 0 {
		t.Errorf("OnError calls = %d, want 0", errs)
	}
}
