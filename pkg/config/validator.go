package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateLogger(&cfg.Logger)
	v.validateDiscord(&cfg.Discord)
	v.validateCommands(&cfg.Commands)
	v.validateLookup(&cfg.Lookup)
	v.validateProviders(&cfg.Providers)
	v.validateBus(&cfg.Bus, &cfg.Redis)
	v.validateCache(&cfg.Cache, &cfg.Redis)
	v.validateHTTP(&cfg.HTTP)

	if len(v.errors) > 0 {
		return v.errors
	}

	return nil
}

func (v *Validator) validateLogger(cfg *LoggerConfig) {
	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		v.addError("logger.level", "level must be one of: debug, info, warn, error, fatal")
	}
}

func (v *Validator) validateDiscord(cfg *DiscordConfig) {
	if cfg.Enabled && strings.TrimSpace(cfg.Token) == "" {
		v.addError("discord.token", "token is required when Discord is enabled")
	}
}

func (v *Validator) validateCommands(cfg *CommandsConfig) {
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		v.addError("commands.prefix", "prefix is required")
	} else if strings.ContainsAny(prefix, " \t\n") {
		v.addError("commands.prefix", "prefix must not contain whitespace")
	}
}

// validateLookup validates pipeline tuning.
func (v *Validator) validateLookup(cfg *LookupConfig) {
	v.validateDuration("lookup.selection_timeout", cfg.SelectionTimeout)
	v.validateDuration("lookup.request_timeout", cfg.RequestTimeout)

	if cfg.MaxResults < 1 || cfg.MaxResults > 10 {
		v.addError("lookup.max_results", "max_results must be between 1 and 10")
	}
	if cfg.MinDescription < 0 {
		v.addError("lookup.min_description", "min_description must be non-negative")
	}
	if cfg.ListMaxLength < 256 {
		v.addError("lookup.list_max_length", "list_max_length must be at least 256")
	}
	if cfg.MaxResponseMB < 0 {
		v.addError("lookup.max_response_mb", "max_response_mb must be non-negative")
	}
}

func (v *Validator) validateProviders(cfg *ProvidersConfig) {
	if !cfg.Composer.Enabled && !cfg.NPM.Enabled {
		v.addError("providers", "at least one provider must be enabled")
	}
	if cfg.Composer.Enabled {
		v.validateURL("providers.composer.base_url", cfg.Composer.BaseURL)
	}
	if cfg.NPM.Enabled {
		v.validateURL("providers.npm.registry_url", cfg.NPM.RegistryURL)
		v.validateURL("providers.npm.downloads_url", cfg.NPM.DownloadsURL)
		v.validateURL("providers.npm.web_url", cfg.NPM.WebURL)
	}
}

func (v *Validator) validateBus(cfg *BusConfig, redis *RedisConfig) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "local":
	case "redis":
		if strings.TrimSpace(redis.Addr) == "" {
			v.addError("redis.addr", "addr is required when bus type is redis")
		}
	default:
		v.addError("bus.type", "type must be one of: local, redis")
	}
	if cfg.BufferSize < 0 {
		v.addError("bus.buffer_size", "buffer_size must be non-negative")
	}
}

func (v *Validator) validateCache(cfg *CacheConfig, redis *RedisConfig) {
	if !cfg.Enabled {
		return
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(redis.Addr) == "" {
			v.addError("redis.addr", "addr is required when cache backend is redis")
		}
	default:
		v.addError("cache.backend", "backend must be one of: memory, redis")
	}
	v.validateDuration("cache.ttl", cfg.TTL)
	if cfg.MaxEntries < 0 {
		v.addError("cache.max_entries", "max_entries must be non-negative")
	}
}

func (v *Validator) validateHTTP(cfg *HTTPConfig) {
	if cfg.Enabled && (cfg.Port < 1 || cfg.Port > 65535) {
		v.addError("http.port", "port must be between 1 and 65535")
	}
}

func (v *Validator) validateDuration(field, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		v.addError(field, fmt.Sprintf("invalid duration: %v", err))
		return
	}
	if d <= 0 {
		v.addError(field, "duration must be positive")
	}
}

func (v *Validator) validateURL(field, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		v.addError(field, fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		v.addError(field, "URL scheme must be http or https")
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// ValidateConfig is a convenience function to validate a configuration.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.Validate(cfg)
}
