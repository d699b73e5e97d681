package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsOutdated(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"1.2.3", "1.2.4", true},
		{"v1.2.3", "1.3.0", true},
		{"1.2.3", "1.2.3", false},
		{"1.10.0", "1.9.9", false},
		{"2.0.0-beta", "2.0.0", false},
		{"dev", "9.9.9", false},
		{"1.0.0", "", false},
	}

	for _, tt := range tests {
		if got := IsOutdated(tt.current, tt.latest); got != tt.want {
			t.Errorf("IsOutdated(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestCheckLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v0.4.1"}`))
	}))
	defer server.Close()

	old := ReleasesURL
	ReleasesURL = server.URL
	defer func() { ReleasesURL = old }()

	got, err := CheckLatest(context.Background())
	if err != nil {
		t.Fatalf("CheckLatest() error = %v", err)
	}
	if got != "0.4.1" {
		t.Errorf("CheckLatest() = %q, want %q", got, "0.4.1")
	}
}

func TestCheckLatestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	old := ReleasesURL
	ReleasesURL = server.URL
	defer func() { ReleasesURL = old }()

	if _, err := CheckLatest(context.Background()); err == nil {
		t.Error("CheckLatest() error = nil on 403")
	}
}
