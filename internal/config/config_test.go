package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Use a temp directory for testing
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DefaultHost != DefaultHost {
		t.Errorf("DefaultHost = %v, want %v", cfg.DefaultHost, DefaultHost)
	}
	if cfg.OutputFormat != DefaultOutputFormat {
		t.Errorf("OutputFormat = %v, want %v", cfg.OutputFormat, DefaultOutputFormat)
	}
	if cfg.EventTransport != DefaultEventTransport {
		t.Errorf("EventTransport = %v, want %v", cfg.EventTransport, DefaultEventTransport)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	cfg := &Config{
		DefaultHost:    "https://cds.example.com",
		OutputFormat:   "json",
		LogLevel:       "debug",
		EventTransport: "websocket",
		Language:       "fr",
	}

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	// Verify file was created with correct permissions
	configPath := filepath.Join(tmpDir, ".cdsconsole", "config.json")
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Config file permissions = %v, want %v", info.Mode().Perm(), 0600)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("LoadConfig() = %+v, want %+v", *loaded, *cfg)
	}
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	dir := filepath.Join(tmpDir, ".cdsconsole")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"output_format":"yaml"}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.OutputFormat != "yaml" {
		t.Errorf("OutputFormat = %v, want yaml", cfg.OutputFormat)
	}
	if cfg.DefaultHost != DefaultHost {
		t.Errorf("DefaultHost = %v, want %v", cfg.DefaultHost, DefaultHost)
	}
	if cfg.Language != DefaultLanguage {
		t.Errorf("Language = %v, want %v", cfg.Language, DefaultLanguage)
	}
}

func TestSetHost(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)
	t.Setenv(EnvHost, "")

	newHost := "https://new.example.com"
	if err := SetHost(newHost); err != nil {
		t.Fatalf("SetHost() error = %v", err)
	}

	if got := GetHost(); got != newHost {
		t.Errorf("GetHost() = %v, want %v", got, newHost)
	}
}

func TestGetHostPrefersEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	if err := SetHost("https://file.example.com"); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvHost, "https://env.example.com")

	if got := GetHost(); got != "https://env.example.com" {
		t.Errorf("GetHost() = %v, want https://env.example.com", got)
	}
}

func TestSetOutputFormat(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	if err := SetOutputFormat("json"); err != nil {
		t.Fatalf("SetOutputFormat() error = %v", err)
	}

	if got := GetOutputFormat(); got != "json" {
		t.Errorf("GetOutputFormat() = %v, want %v", got, "json")
	}
}
