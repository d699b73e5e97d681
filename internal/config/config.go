// Package config handles configuration and durable client storage.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	// DefaultHost is the default API server host.
	DefaultHost = "http://localhost:8081"
	// DefaultOutputFormat is the default output format.
	DefaultOutputFormat = "table"
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "warn"
	// DefaultEventTransport is the default push channel transport.
	DefaultEventTransport = "sse"
	// DefaultLanguage is the default language of user notifications.
	DefaultLanguage = "en"
)

// Environment variables overriding the configuration.
const (
	EnvHost         = "CDS_HOST"
	EnvSessionToken = "CDS_SESSION_TOKEN"
)

// Config represents the console configuration.
type Config struct {
	DefaultHost    string `json:"default_host"`
	OutputFormat   string `json:"output_format"`
	LogLevel       string `json:"log_level"`
	EventTransport string `json:"event_transport"`
	Language       string `json:"language"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultHost:    DefaultHost,
		OutputFormat:   DefaultOutputFormat,
		LogLevel:       DefaultLogLevel,
		EventTransport: DefaultEventTransport,
		Language:       DefaultLanguage,
	}
}

// configDir returns the path to the ~/.cdsconsole directory.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cdsconsole"), nil
}

// ensureConfigDir creates the config directory if it doesn't exist.
func ensureConfigDir() error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig loads the configuration from disk, creating defaults if necessary.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.DefaultHost == "" {
		c.DefaultHost = def.DefaultHost
	}
	if c.OutputFormat == "" {
		c.OutputFormat = def.OutputFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.EventTransport == "" {
		c.EventTransport = def.EventTransport
	}
	if c.Language == "" {
		c.Language = def.Language
	}
}

// SaveConfig saves the configuration to disk.
func SaveConfig(cfg *Config) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// load returns the stored configuration or the defaults when it cannot be read.
func load() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		return Default()
	}
	return cfg
}

// GetHost returns the API host: $CDS_HOST, then the config file.
func GetHost() string {
	if h := os.Getenv(EnvHost); h != "" {
		return h
	}
	return load().DefaultHost
}

// GetOutputFormat returns the output format from config.
func GetOutputFormat() string {
	return load().OutputFormat
}

// GetLogLevel returns the log level from config.
func GetLogLevel() string {
	return load().LogLevel
}

// GetEventTransport returns the push channel transport ("sse" or "websocket").
func GetEventTransport() string {
	return load().EventTransport
}

// GetLanguage returns the notification language.
func GetLanguage() string {
	return load().Language
}

// Update loads the configuration, applies fn and saves the result.
func Update(fn func(cfg *Config)) error {
	cfg, err := LoadConfig()
	if err != nil {
		cfg = Default()
	}
	fn(cfg)
	return SaveConfig(cfg)
}

// SetHost updates the default host in config.
func SetHost(host string) error {
	return Update(func(cfg *Config) { cfg.DefaultHost = host })
}

// SetOutputFormat updates the output format in config.
func SetOutputFormat(format string) error {
	return Update(func(cfg *Config) { cfg.OutputFormat = format })
}
