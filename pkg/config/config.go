// Package config provides configuration management for pkgbot.
// It uses Viper for flexible configuration loading with support for:
// - Multiple formats (JSON, YAML, TOML)
// - Environment variables
// - Hot-reload
// - Default values
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config represents the complete pkgbot configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" json:"logger"`
	Discord   DiscordConfig   `mapstructure:"discord" json:"discord"`
	Commands  CommandsConfig  `mapstructure:"commands" json:"commands"`
	Lookup    LookupConfig    `mapstructure:"lookup" json:"lookup"`
	Providers ProvidersConfig `mapstructure:"providers" json:"providers"`
	Bus       BusConfig       `mapstructure:"bus" json:"bus"`
	Redis     RedisConfig     `mapstructure:"redis" json:"redis"`
	Cache     CacheConfig     `mapstructure:"cache" json:"cache"`
	HTTP      HTTPConfig      `mapstructure:"http" json:"http"`
	mu        sync.RWMutex
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	OutputPath  string `mapstructure:"output_path" json:"output_path"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress"`
	Development bool   `mapstructure:"development" json:"development"`
}

// DiscordConfig for Discord channel.
type DiscordConfig struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled"`
	Token     string   `mapstructure:"token" json:"token"`
	AllowFrom []string `mapstructure:"allow_from" json:"allow_from"`
}

// CommandsConfig controls keyword routing.
type CommandsConfig struct {
	Prefix string `mapstructure:"prefix" json:"prefix"`
}

// LookupConfig tunes the interactive lookup pipeline.
type LookupConfig struct {
	// SelectionTimeout is how long a result list waits for the requester's pick.
	SelectionTimeout string `mapstructure:"selection_timeout" json:"selection_timeout"`
	// RequestTimeout bounds each registry HTTP call.
	RequestTimeout string `mapstructure:"request_timeout" json:"request_timeout"`
	MaxResults     int    `mapstructure:"max_results" json:"max_results"`
	ListMaxLength  int    `mapstructure:"list_max_length" json:"list_max_length"`
	MinDescription int    `mapstructure:"min_description" json:"min_description"`
	// UserAgent overrides the User-Agent sent to registries; empty uses the build version.
	UserAgent string `mapstructure:"user_agent" json:"user_agent"`
	// MaxResponseMB caps a single registry response body; 0 uses the client default.
	MaxResponseMB int `mapstructure:"max_response_mb" json:"max_response_mb"`
}

// ProvidersConfig contains the registry integrations.
type ProvidersConfig struct {
	Composer ComposerConfig `mapstructure:"composer" json:"composer"`
	NPM      NPMConfig      `mapstructure:"npm" json:"npm"`
}

// ComposerConfig for the Packagist provider.
type ComposerConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	BaseURL     string `mapstructure:"base_url" json:"base_url"`
	PlatformKey string `mapstructure:"platform_key" json:"platform_key"`
}

// NPMConfig for the npm provider.
type NPMConfig struct {
	Enabled      bool   `mapstructure:"enabled" json:"enabled"`
	RegistryURL  string `mapstructure:"registry_url" json:"registry_url"`
	DownloadsURL string `mapstructure:"downloads_url" json:"downloads_url"`
	WebURL       string `mapstructure:"web_url" json:"web_url"`
	PlatformKey  string `mapstructure:"platform_key" json:"platform_key"`
}

// BusConfig selects the selection-signal bus backend.
type BusConfig struct {
	Type       string `mapstructure:"type" json:"type"` // "local" or "redis"
	Prefix     string `mapstructure:"prefix" json:"prefix"`
	BufferSize int    `mapstructure:"buffer_size" json:"buffer_size"`
}

// CacheConfig controls the registry response cache.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	Backend    string `mapstructure:"backend" json:"backend"` // "memory" or "redis"
	TTL        string `mapstructure:"ttl" json:"ttl"`
	MaxEntries int    `mapstructure:"max_entries" json:"max_entries"`
	// FilePath persists the memory backend across restarts; empty keeps it in memory only.
	FilePath string `mapstructure:"file_path" json:"file_path"`
	Prefix   string `mapstructure:"prefix" json:"prefix"`
}

// HTTPConfig controls the status API.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Host    string `mapstructure:"host" json:"host"`
	Port    int    `mapstructure:"port" json:"port"`
}

// RedisConfig is shared Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: filepath.Join(homeDir, ".pkgbot", "logs", "pkgbot.log"),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Discord: DiscordConfig{
			Enabled:   false,
			AllowFrom: []string{},
		},
		Commands: CommandsConfig{
			Prefix: "!",
		},
		Lookup: LookupConfig{
			SelectionTimeout: "60s",
			RequestTimeout:   "15s",
			MaxResults:       10,
			ListMaxLength:    2048,
			MinDescription:   24,
		},
		Providers: ProvidersConfig{
			Composer: ComposerConfig{
				Enabled:     true,
				BaseURL:     "https://packagist.org",
				PlatformKey: "php",
			},
			NPM: NPMConfig{
				Enabled:      true,
				RegistryURL:  "https://registry.npmjs.org",
				DownloadsURL: "https://api.npmjs.org",
				WebURL:       "https://www.npmjs.com",
				PlatformKey:  "node",
			},
		},
		Bus: BusConfig{
			Type:       "local",
			Prefix:     "pkgbot:signals:",
			BufferSize: 100,
		},
		Redis: RedisConfig{},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    "memory",
			TTL:        "10m",
			MaxEntries: 512,
			Prefix:     "pkgbot:cache:",
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8787,
		},
	}
}

// SelectionTimeout returns the parsed selection window, falling back to 60s.
func (c *Config) SelectionTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.Lookup.SelectionTimeout, 60*time.Second)
}

// RequestTimeout returns the parsed registry request timeout, falling back to 15s.
func (c *Config) RequestTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.Lookup.RequestTimeout, 15*time.Second)
}

// CacheTTL returns how long registry responses are kept, falling back to 10m.
func (c *Config) CacheTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.Cache.TTL, 10*time.Minute)
}

// CacheFilePath returns the expanded snapshot path, or "" when unset.
func (c *Config) CacheFilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if strings.TrimSpace(c.Cache.FilePath) == "" {
		return ""
	}
	return expandPath(c.Cache.FilePath)
}

// LogPath returns the expanded log file path.
func (c *Config) LogPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandPath(c.Logger.OutputPath)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
