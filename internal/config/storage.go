package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Durable storage slots.
const (
	// SlotUser holds the serialized identity.
	SlotUser = "CDS-USER"
	// SlotSessionToken holds the raw session token.
	SlotSessionToken = "CDS-SESSION-TOKEN"
)

// ErrSlotNotFound is returned when a storage slot holds no value.
var ErrSlotNotFound = errors.New("storage slot not found")

// Storage is a durable key/value store of named string slots.
type Storage interface {
	Get(slot string) (string, error)
	Set(slot, value string) error
	Remove(slot string) error
}

// Slots is a map of host -> slot -> value.
type Slots map[string]map[string]string

// storagePath returns the path to the storage file.
func storagePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "storage.json"), nil
}

// LoadSlots loads every host's slots from disk.
func LoadSlots() (Slots, error) {
	path, err := storagePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(Slots), nil
	}
	if err != nil {
		return nil, err
	}

	var slots Slots
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	if slots == nil {
		slots = make(Slots)
	}
	return slots, nil
}

// SaveSlots saves every host's slots to disk. The file is written to a
// temporary name and renamed over storage.json, so readers never see a
// partial file.
func SaveSlots(slots Slots) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := storagePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".storage-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// FileStorage stores the slots of one host in ~/.cdsconsole/storage.json.
type FileStorage struct {
	host string
	mu   sync.Mutex
}

// NewFileStorage returns the durable storage of host.
// If host is empty, uses the default host.
func NewFileStorage(host string) *FileStorage {
	if host == "" {
		host = GetHost()
	}
	return &FileStorage{host: host}
}

// Host returns the host the storage is scoped to.
func (s *FileStorage) Host() string {
	return s.host
}

// Get returns the value of slot, or ErrSlotNotFound.
func (s *FileStorage) Get(slot string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := LoadSlots()
	if err != nil {
		return "", err
	}
	v, ok := slots[s.host][slot]
	if !ok {
		return "", ErrSlotNotFound
	}
	return v, nil
}

// Set writes the value of slot.
func (s *FileStorage) Set(slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An unreadable file still holds other hosts' slots; never overwrite it.
	slots, err := LoadSlots()
	if err != nil {
		return fmt.Errorf("read storage: %w", err)
	}
	if slots[s.host] == nil {
		slots[s.host] = make(map[string]string)
	}
	slots[s.host][slot] = value
	return SaveSlots(slots)
}

// Remove clears slot. Removing an empty slot is not an error.
func (s *FileStorage) Remove(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := LoadSlots()
	if err != nil {
		return err
	}
	if _, ok := slots[s.host][slot]; !ok {
		return nil
	}
	delete(slots[s.host], slot)
	if len(slots[s.host]) == 0 {
		delete(slots, s.host)
	}
	return SaveSlots(slots)
}

// Watch calls onChange every time the storage file is written by this or
// another process, until ctx is done.
func (s *FileStorage) Watch(ctx context.Context, onChange func()) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}
	path, err := storagePath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// SaveSlots renames a new file over the old one, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// MemoryStorage keeps slots in memory. It backs sessions provided through
// the environment and tests.
type MemoryStorage struct {
	mu    sync.Mutex
	slots map[string]string
}

// NewMemoryStorage returns a storage holding a copy of initial.
func NewMemoryStorage(initial map[string]string) *MemoryStorage {
	m := &MemoryStorage{slots: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.slots[k] = v
	}
	return m
}

// Get returns the value of slot, or ErrSlotNotFound.
func (m *MemoryStorage) Get(slot string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[slot]
	if !ok {
		return "", ErrSlotNotFound
	}
	return v, nil
}

// Set writes the value of slot.
func (m *MemoryStorage) Set(slot, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = value
	return nil
}

// Remove clears slot.
func (m *MemoryStorage) Remove(slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}
