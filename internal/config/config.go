package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the persistent application configuration
type Config struct {
	// Deck service (card game backend)
	Deck DeckConfig `json:"deck"`

	// Card search service
	Search SearchConfig `json:"search"`

	// Chat collaborator event stream
	Chat ChatConfig `json:"chat"`

	// UI Preferences
	UI UIConfig `json:"ui"`
}

// DeckConfig holds deck service settings
type DeckConfig struct {
	APIBase        string `json:"api_base"`
	AccessToken    string `json:"access_token,omitempty"`
	FetchTimeoutMs int    `json:"fetch_timeout_ms"` // 0 = no deadline
}

// FetchTimeout returns the configured deck fetch timeout as a duration.
func (d DeckConfig) FetchTimeout() time.Duration {
	return time.Duration(d.FetchTimeoutMs) * time.Millisecond
}

// SearchConfig holds card search settings
type SearchConfig struct {
	Endpoint string `json:"endpoint"`
}

// ChatConfig holds chat stream settings
type ChatConfig struct {
	StreamURL string `json:"stream_url"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme        string `json:"theme"`
	HistoryLimit int    `json:"history_limit"` // rows shown by the history view
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Deck: DeckConfig{
			APIBase:        "http://localhost:8100",
			FetchTimeoutMs: 15000,
		},
		Search: SearchConfig{
			Endpoint: "http://localhost:8100/api/cards/search",
		},
		Chat: ChatConfig{
			StreamURL: "http://localhost:8200/events",
		},
		UI: UIConfig{
			Theme:        "dark",
			HistoryLimit: 50,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".deckhand", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from an explicit path. Missing file returns
// defaults with environment overrides applied.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.AutoPopulateFromEnv()

	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to an explicit path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for the access token
}

// AutoPopulateFromEnv overrides settings from environment variables.
// Env wins over the file so deployments can inject the token without
// writing it to disk.
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("DECKHAND_API_BASE"); v != "" {
		c.Deck.APIBase = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DECKHAND_ACCESS_TOKEN"); v != "" {
		c.Deck.AccessToken = v
	}
	if v := os.Getenv("DECKHAND_SEARCH_ENDPOINT"); v != "" {
		c.Search.Endpoint = v
	}
	if v := os.Getenv("DECKHAND_CHAT_STREAM"); v != "" {
		c.Chat.StreamURL = v
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.Deck.APIBase == "" {
		return fmt.Errorf("deck.api_base is required")
	}
	if c.Search.Endpoint == "" {
		return fmt.Errorf("search.endpoint is required")
	}
	if c.Chat.StreamURL == "" {
		return fmt.Errorf("chat.stream_url is required")
	}
	return nil
}
