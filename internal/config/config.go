// Package config loads and saves rex's JSON configuration.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Search   SearchConfig   `json:"search"`
	Complete CompleteConfig `json:"complete"`
	History  HistoryConfig  `json:"history"`
	Watcher  WatcherConfig  `json:"watcher"`
	Store    StoreConfig    `json:"store"`
}

// SearchConfig holds search engine settings
type SearchConfig struct {
	Workers      int     `json:"workers"`      // 0 = NumCPU capped at 8
	ResultBuffer int     `json:"resultBuffer"` // bounded result channel capacity
	MaxResults   int     `json:"maxResults"`   // 0 = unlimited
	MinFuzzy     float64 `json:"minFuzzyScore"`
}

// CompleteConfig holds autocomplete settings
type CompleteConfig struct {
	MaxSuggestions int `json:"maxSuggestions"`
}

// HistoryConfig holds navigation history settings
type HistoryConfig struct {
	MaxEntries int `json:"maxEntries"`
}

// WatcherConfig holds directory watcher settings
type WatcherConfig struct {
	DebounceMs int `json:"debounceMs"`
}

// StoreConfig holds pin store settings
type StoreConfig struct {
	DBPath string `json:"dbPath"` // empty = ~/.local/share/rex/pins.db
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Workers:      0, // auto
			ResultBuffer: 64,
			MaxResults:   0,
			MinFuzzy:     0.0,
		},
		Complete: CompleteConfig{
			MaxSuggestions: 6,
		},
		History: HistoryConfig{
			MaxEntries: 100,
		},
		Watcher: WatcherConfig{
			DebounceMs: 200,
		},
		Store: StoreConfig{
			DBPath: DefaultDBPath(),
		},
	}
}

// ConfigPath returns the config file path: ~/.config/rex/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rex", "config.json")
}

// DefaultDBPath returns the default pin database path:
// ~/.local/share/rex/pins.db
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "rex", "pins.db")
}

// Load reads the configuration from the config file.
// If the file doesn't exist, creates it with defaults.
// If parsing fails, stores the error and keeps defaults.
func (m *Manager) Load() error {
	return m.LoadFrom(ConfigPath())
}

// LoadFrom reads the configuration from an explicit path.
func (m *Manager) LoadFrom(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = path
	m.parseErr = nil

	// Ensure config directory exists
	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		// Create default config file
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Keep defaults, remember the error for callers to surface
		log.Printf("Config: parse error in %s: %v", m.path, err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}

	m.config = &cfg
	m.applyFallbacks()
	return nil
}

// applyFallbacks fills zero values that make no sense with defaults.
func (m *Manager) applyFallbacks() {
	def := DefaultConfig()
	if m.config.Search.ResultBuffer <= 0 {
		m.config.Search.ResultBuffer = def.Search.ResultBuffer
	}
	if m.config.Complete.MaxSuggestions <= 0 {
		m.config.Complete.MaxSuggestions = def.Complete.MaxSuggestions
	}
	if m.config.History.MaxEntries <= 0 {
		m.config.History.MaxEntries = def.History.MaxEntries
	}
	if m.config.Watcher.DebounceMs <= 0 {
		m.config.Watcher.DebounceMs = def.Watcher.DebounceMs
	}
	if m.config.Store.DBPath == "" {
		m.config.Store.DBPath = def.Store.DBPath
	}
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// ParseError returns the stored parse error, if the last load failed
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}
