package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStorageEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	s := NewFileStorage("https://cds.example.com")
	if _, err := s.Get(SlotUser); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("Get() error = %v, want ErrSlotNotFound", err)
	}
}

func TestFileStorageSetGetRemove(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	s := NewFileStorage("https://cds.example.com")
	if err := s.Set(SlotSessionToken, "tok-123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Verify file permissions
	path := filepath.Join(tmpDir, ".cdsconsole", "storage.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Storage file not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Storage file permissions = %v, want %v", info.Mode().Perm(), 0600)
	}

	got, err := s.Get(SlotSessionToken)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "tok-123" {
		t.Errorf("Get() = %v, want tok-123", got)
	}

	if err := s.Remove(SlotSessionToken); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := s.Get(SlotSessionToken); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrSlotNotFound", err)
	}
	if err := s.Remove(SlotSessionToken); err != nil {
		t.Errorf("Remove() of empty slot error = %v", err)
	}
}

func TestFileStorageIsScopedByHost(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	hosts := []string{
		"https://host1.example.com",
		"https://host2.example.com",
	}
	for i, host := range hosts {
		if err := NewFileStorage(host).Set(SlotUser, "user"+string(rune('a'+i))); err != nil {
			t.Fatalf("Set(%s) error = %v", host, err)
		}
	}

	for i, host := range hosts {
		got, err := NewFileStorage(host).Get(SlotUser)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", host, err)
		}
		if want := "user" + string(rune('a'+i)); got != want {
			t.Errorf("Get(%s) = %v, want %v", host, got, want)
		}
	}
}

func TestFileStorageWatch(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	s := NewFileStorage("https://cds.example.com")
	if err := s.Watch(ctx, func() { changed <- struct{}{} }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Another process writing the same file.
	other := NewFileStorage("https://cds.example.com")
	if err := other.Set(SlotSessionToken, "tok"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification after write")
	}
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage(map[string]string{SlotSessionToken: "env-token"})

	got, err := m.Get(SlotSessionToken)
	if err != nil || got != "env-token" {
		t.Errorf("Get() = %v, %v, want env-token, nil", got, err)
	}
	if _, err := m.Get(SlotUser); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("Get(SlotUser) error = %v, want ErrSlotNotFound", err)
	}

	m.Set(SlotUser, "{}")
	m.Remove(SlotSessionToken)
	if _, err := m.Get(SlotSessionToken); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrSlotNotFound", err)
	}
}

func TestFileStorageSetKeepsUnreadableFile(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	dir := filepath.Join(tmpDir, ".cdsconsole")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "storage.json")
	corrupt := []byte(`{"https://other.example.com": {"CDS-USER": `)
	if err := os.WriteFile(path, corrupt, 0600); err != nil {
		t.Fatal(err)
	}

	s := NewFileStorage("https://cds.example.com")
	if err := s.Set(SlotSessionToken, "tok"); err == nil {
		t.Fatal("Set() error = nil on an unreadable file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(corrupt) {
		t.Errorf("file rewritten: %q", data)
	}
}

func TestSaveSlotsReplacesFile(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	s := NewFileStorage("https://cds.example.com")
	for _, v := range []string{"one", "two"} {
		if err := s.Set(SlotSessionToken, v); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(tmpDir, ".cdsconsole"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "storage.json" {
			t.Errorf("unexpected file %s left next to storage.json", e.Name())
		}
	}

	info, err := os.Stat(filepath.Join(tmpDir, ".cdsconsole", "storage.json"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}
	if v, _ := s.Get(SlotSessionToken); v != "two" {
		t.Errorf("Get() = %q, want two", v)
	}
}
