// Package config loads settings for the server (environment) and the CLI
// client (YAML file), and sets up logging.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is where the CLI looks for the API when nothing else is set.
const DefaultServerURL = "http://localhost:8000"

// DefaultFileName is the CLI config file looked up in the home directory.
const DefaultFileName = ".hiretree.yaml"

// Config is the CLI client configuration. Every field is optional; flags
// override file values and defaults fill the rest.
type Config struct {
	Server   string        `yaml:"server,omitempty"`    // API base URL
	Timeout  time.Duration `yaml:"timeout,omitempty"`   // per-request timeout, e.g. "15s"
	Token    string        `yaml:"token,omitempty"`     // bearer token for authenticated calls
	LogLevel string        `yaml:"log_level,omitempty"` // debug, info, warn, error
}

// Defaults returns the built-in CLI configuration.
func Defaults() Config {
	return Config{
		Server:   DefaultServerURL,
		Timeout:  30 * time.Second,
		LogLevel: "warn",
	}
}

// DefaultPath returns ~/.hiretree.yaml, or "" when there is no home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultFileName)
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, nil
}

// LoadOptional reads path if it exists. A missing file yields an empty config.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return LoadConfig(path)
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.Server != "" {
		u, err := url.Parse(c.Server)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config error: 'server' must be an http(s) URL, got %q", c.Server)
		}
	}
	if c.Timeout < 0 {
		return errors.New("config error: 'timeout' must be non-negative")
	}
	if c.LogLevel != "" {
		if _, ok := logLevels[normalizeLevel(c.LogLevel)]; !ok {
			return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
		}
	}
	return nil
}

// MergeWithDefaults returns a copy with unset fields taken from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c
	if result.Server == "" {
		result.Server = defaults.Server
	}
	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.Token == "" {
		result.Token = defaults.Token
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	return result
}

// Save writes the config as YAML, readable only by the owner since it may
// hold a session token.
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
