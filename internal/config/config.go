// Package config handles coachd configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/coachd/config.yaml, /etc/coachd/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "coachd", "config.yaml"))
	}

	paths = append(paths, "/etc/coachd/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all coachd configuration.
type Config struct {
	Listen    ListenConfig   `yaml:"listen"`
	OpenAI    OpenAIConfig   `yaml:"openai"`
	Database  DatabaseConfig `yaml:"database"`
	Chat      ChatConfig     `yaml:"chat"`
	Auth      AuthConfig     `yaml:"auth"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// OpenAIConfig defines the chat-completion endpoint settings.
// The API key is never read from the file; it comes from the
// OPENAI_API_KEY environment variable so config files stay shareable.
type OpenAIConfig struct {
	BaseURL    string `yaml:"base_url"` // Empty = the platform default
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"` // Per-request timeout (default 120)
	MaxRetries int    `yaml:"max_retries"` // Transport retries for transient failures (default 2)

	APIKey string `yaml:"-"`
}

// DatabaseConfig defines the document store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ChatConfig defines the coach conversation loop settings.
type ChatConfig struct {
	// MaxToolRounds bounds the model-call/tool-execution cycle per
	// user turn. After this many rounds a final no-tool call is forced.
	MaxToolRounds int `yaml:"max_tool_rounds"`
}

// AuthConfig defines request attribution settings. Coachd only verifies
// bearer tokens minted by the main app; it never issues them.
type AuthConfig struct {
	JWTSecret string `yaml:"-"`
}

// Default returns a config with defaults applied and secrets pulled from
// the environment. Used when no config file exists.
func Default() (*Config, error) {
	var cfg Config
	cfg.applyDefaults()
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Auth.JWTSecret = os.Getenv("COACH_JWT_SECRET")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the config file at path, applies defaults, and
// pulls secrets from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Auth.JWTSecret = os.Getenv("COACH_JWT_SECRET")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 8801
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o"
	}
	if c.OpenAI.TimeoutSec <= 0 {
		c.OpenAI.TimeoutSec = 120
	}
	if c.OpenAI.MaxRetries < 0 {
		c.OpenAI.MaxRetries = 0
	} else if c.OpenAI.MaxRetries == 0 {
		c.OpenAI.MaxRetries = 2
	}
	if c.Database.Path == "" {
		c.Database.Path = "coach.db"
	}
	if c.Chat.MaxToolRounds <= 0 {
		c.Chat.MaxToolRounds = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("COACH_JWT_SECRET environment variable is required")
	}
	return nil
}
