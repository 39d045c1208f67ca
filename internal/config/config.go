// ABOUTME: Wellness configuration with backend selection and environment overrides.
// ABOUTME: Handles the config file, the object-store factory, and timezone resolution.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/wellness/internal/charm"
	"github.com/harperreed/wellness/internal/garmin"
	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/storage"
)

// Defaults.
const (
	DefaultBackend      = "sqlite"
	DefaultTimezone     = "UTC"
	DefaultHTTPAddress  = ":8080"
	DefaultLogLevel     = "info"
	DefaultFetchTimeout = 8 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Config stores wellness configuration.
type Config struct {
	// Backend selects the object store: "sqlite" (default), "badger", "charm", or "memory".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for local backends.
	// SQLite puts wellness.db here, Badger uses a badger/ subdirectory.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/wellness.
	DataDir string `json:"data_dir,omitempty"`

	// LedgerName is the logical object name of the ledger flat file.
	LedgerName string `json:"ledger_name,omitempty"`

	// Timezone is the IANA zone used to decide "today".
	Timezone string `json:"timezone,omitempty"`

	// TokensFile holds exported provider tokens. GARMIN_TOKENS takes precedence.
	TokensFile string `json:"tokens_file,omitempty"`

	APIBaseURL  string `json:"api_base_url,omitempty"`
	DisplayName string `json:"display_name,omitempty"`

	CharmHost string `json:"charm_host,omitempty"`
	CharmDB   string `json:"charm_db,omitempty"`

	// Timeouts use Go duration syntax ("8s", "1m").
	FetchTimeout string `json:"fetch_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`

	HTTPAddress string `json:"http_address,omitempty"`

	// Schedule is a cron spec for the daily sync in serve mode. Empty disables it.
	Schedule string `json:"schedule,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// tokens is the GARMIN_TOKENS blob; never written to disk.
	tokens string
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return DefaultBackend
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetLedgerName returns the ledger object name.
func (c *Config) GetLedgerName() string {
	if c.LedgerName == "" {
		return ledger.DefaultName
	}
	return c.LedgerName
}

// GetHTTPAddress returns the serve listen address.
func (c *Config) GetHTTPAddress() string {
	if c.HTTPAddress == "" {
		return DefaultHTTPAddress
	}
	return c.HTTPAddress
}

// GetLogLevel returns the zerolog level name.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// GetFetchTimeout returns the per-category fetch timeout.
func (c *Config) GetFetchTimeout() time.Duration {
	return parseDuration(c.FetchTimeout, DefaultFetchTimeout)
}

// GetWriteTimeout returns the per-call ledger store timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeout, DefaultWriteTimeout)
}

func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates an ObjectStore based on the configured backend.
func (c *Config) OpenStorage() (storage.ObjectStore, error) {
	backend := c.GetBackend()
	dataDir := c.GetDataDir()

	switch backend {
	case "sqlite":
		return storage.Open(storage.DBPath(dataDir))
	case "badger":
		return storage.OpenBadger(filepath.Join(dataDir, "badger"))
	case "charm":
		return charm.Open(c.CharmDB, c.CharmHost)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// SessionTokens returns the exported provider tokens from GARMIN_TOKENS or the tokens file.
// No tokens at all is garmin.ErrNoSession.
func (c *Config) SessionTokens() ([]byte, error) {
	if c.tokens != "" {
		return []byte(c.tokens), nil
	}
	if c.TokensFile == "" {
		return nil, garmin.ErrNoSession
	}
	data, err := os.ReadFile(ExpandPath(c.TokensFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tokens file %s: %w", c.TokensFile, garmin.ErrNoSession)
		}
		return nil, fmt.Errorf("read tokens file: %w", err)
	}
	return data, nil
}

// OpenSession parses the configured provider tokens.
func (c *Config) OpenSession() (*garmin.Session, error) {
	blob, err := c.SessionTokens()
	if err != nil {
		return nil, err
	}
	return garmin.ParseSession(blob)
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "wellness", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads the config file without environment overrides.
func LoadFile() (*Config, error) {
	return loadFile(GetConfigPath())
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnv overlays WELLNESS_* variables, GARMIN_TOKENS and TZ.
func (c *Config) applyEnv() {
	c.Backend = getEnv("WELLNESS_BACKEND", c.Backend)
	c.DataDir = getEnv("WELLNESS_DATA_DIR", c.DataDir)
	c.LedgerName = getEnv("WELLNESS_LEDGER_NAME", c.LedgerName)
	c.Timezone = getEnv("WELLNESS_TIMEZONE", getEnv("TZ", c.Timezone))
	c.TokensFile = getEnv("WELLNESS_TOKENS_FILE", c.TokensFile)
	c.APIBaseURL = getEnv("WELLNESS_API_BASE_URL", c.APIBaseURL)
	c.DisplayName = getEnv("WELLNESS_DISPLAY_NAME", c.DisplayName)
	c.CharmHost = getEnv("WELLNESS_CHARM_HOST", c.CharmHost)
	c.FetchTimeout = getEnv("WELLNESS_FETCH_TIMEOUT", c.FetchTimeout)
	c.WriteTimeout = getEnv("WELLNESS_WRITE_TIMEOUT", c.WriteTimeout)
	c.HTTPAddress = getEnv("WELLNESS_HTTP_ADDRESS", c.HTTPAddress)
	c.Schedule = getEnv("WELLNESS_SCHEDULE", c.Schedule)
	c.LogLevel = getEnv("WELLNESS_LOG_LEVEL", c.LogLevel)
	c.tokens = os.Getenv("GARMIN_TOKENS")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
