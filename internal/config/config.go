// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/agentui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete agentui configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Agent endpoint and transport settings
	Agent AgentConfig `toml:"agent" json:"agent"`

	// Terminal UI settings
	UI UIConfig `toml:"ui" json:"ui"`

	// Logging settings
	Log LogConfig `toml:"log" json:"log"`
}

// AgentConfig describes how to reach the agent.
type AgentConfig struct {
	// URL is the agent base URL; /chat, /upload and /health hang off it
	URL string `toml:"url" json:"url"`
	// APIKey is sent as a bearer token when set
	APIKey string `toml:"api_key" json:"api_key"`
	// TimeoutSecs bounds non-streaming requests (health, upload)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries is the number of retries before a stream has started
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RequestsPerMinute paces outgoing requests (0 = unlimited)
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
	// UploadMaxMB rejects larger files before they are sent
	UploadMaxMB int `toml:"upload_max_mb" json:"upload_max_mb"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`
	// AutoHideMs is how long a completed upload stays visible
	AutoHideMs int `toml:"auto_hide_ms" json:"auto_hide_ms"`
	// Markdown renders replies with glamour
	Markdown bool `toml:"markdown" json:"markdown"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Format is "json" or "console"
	Format string `toml:"format" json:"format"`
	// File receives log output; empty means ~/.agentui/agentui.log
	File string `toml:"file" json:"file"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Agent: AgentConfig{
			URL:               "http://localhost:8787",
			TimeoutSecs:       30,
			MaxRetries:        3,
			RequestsPerMinute: 60,
			UploadMaxMB:       25,
		},
		UI: UIConfig{
			Theme:      "auto",
			AutoHideMs: 2000,
			Markdown:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Timeout returns the request timeout as a duration.
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// AutoHideDelay returns the upload auto-hide delay as a duration.
func (u UIConfig) AutoHideDelay() time.Duration {
	return time.Duration(u.AutoHideMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the agentui configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".agentui"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.agentui/config.toml, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file onto cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Not fatal: permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Keys missing from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills zero values that have no meaningful zero setting.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	// Agent
	if c.Agent.URL == "" {
		c.Agent.URL = defaults.Agent.URL
	}
	c.Agent.URL = strings.TrimSuffix(c.Agent.URL, "/")
	if c.Agent.TimeoutSecs == 0 {
		c.Agent.TimeoutSecs = defaults.Agent.TimeoutSecs
	}
	if c.Agent.UploadMaxMB == 0 {
		c.Agent.UploadMaxMB = defaults.Agent.UploadMaxMB
	}

	// UI
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.AutoHideMs == 0 {
		c.UI.AutoHideMs = defaults.UI.AutoHideMs
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Written atomically with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# agentui configuration file")
	fmt.Fprintln(&buf, "# Generated by agentui - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes     = map[string]bool{"dark": true, "light": true, "auto": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// Validate validates the configuration and returns ValidateErrors when
// anything is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Agent
	// ==========================================================================

	if u, err := url.Parse(c.Agent.URL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "agent.url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "agent.url",
			Message: fmt.Sprintf("URL '%s' must be absolute http(s)", c.Agent.URL),
		})
	}
	if c.Agent.TimeoutSecs < 0 || c.Agent.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "agent.timeout_secs",
			Message: fmt.Sprintf("timeout %d out of range (0-600)", c.Agent.TimeoutSecs),
		})
	}
	if c.Agent.MaxRetries < 0 || c.Agent.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "agent.max_retries",
			Message: fmt.Sprintf("max retries %d out of range (0-10)", c.Agent.MaxRetries),
		})
	}
	if c.Agent.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "agent.requests_per_minute",
			Message: "must not be negative",
		})
	}
	if c.Agent.UploadMaxMB < 0 {
		errs = append(errs, ValidationError{
			Field:   "agent.upload_max_mb",
			Message: "must not be negative",
		})
	}

	// ==========================================================================
	// UI
	// ==========================================================================

	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.AutoHideMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.auto_hide_ms",
			Message: "must not be negative",
		})
	}

	// ==========================================================================
	// Log
	// ==========================================================================

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, console", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - AGENTUI_URL: overrides agent.url
//   - AGENTUI_API_KEY: overrides agent.api_key
//   - AGENTUI_LOG_LEVEL: overrides log.level
//   - AGENTUI_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("AGENTUI_URL"); u != "" {
		c.Agent.URL = u
	}
	if key := os.Getenv("AGENTUI_API_KEY"); key != "" {
		c.Agent.APIKey = key
	}
	if level := os.Getenv("AGENTUI_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if theme := os.Getenv("AGENTUI_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "agent.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent ("api_key" -> "ApiKey", matched case-insensitively).
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.EqualFold(strVal, "true") || strings.EqualFold(strVal, "yes")
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"agent.url",
		"agent.api_key",
		"agent.timeout_secs",
		"agent.max_retries",
		"agent.requests_per_minute",
		"agent.upload_max_mb",
		"ui.theme",
		"ui.auto_hide_ms",
		"ui.markdown",
		"log.level",
		"log.format",
		"log.file",
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON rendering of the config for debugging.
// SECURITY: The API key is redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Agent.APIKey != "" {
		safe.Agent.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
