// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"AGENTUI_URL", "AGENTUI_API_KEY", "AGENTUI_LOG_LEVEL", "AGENTUI_THEME"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.UI.AutoHideDelay() != 2*time.Second {
		t.Errorf("AutoHideDelay = %v, want 2s", cfg.UI.AutoHideDelay())
	}
	if cfg.Agent.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Agent.Timeout())
	}
	if !cfg.UI.Markdown {
		t.Error("markdown should default to on")
	}
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[agent]
url = "https://agent.example.com/"
api_key = "secret"

[ui]
theme = "light"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://agent.example.com", cfg.Agent.URL, "trailing slash trimmed")
	assert.Equal(t, "secret", cfg.Agent.APIKey)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 2000, cfg.UI.AutoHideMs)
	assert.True(t, cfg.UI.Markdown)
	assert.Equal(t, 3, cfg.Agent.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromPath_ExplicitFalseSurvives(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[ui]\nmarkdown = false\n")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, cfg.UI.Markdown)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[ui]\ntheme = \"neon\"\n[log]\nlevel = \"loud\"\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.ElementsMatch(t, []string{"ui.theme", "log.level"}, fields)
}

func TestLoadFromPath_BadTOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[agent\nurl = ")

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	clearEnv(t)
	path := writeConfig(t, "")
	require.NoError(t, os.Chmod(path, 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad_WithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Agent.URL, cfg.Agent.URL)
}

func TestLoad_ReadsHomeConfig(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	cfg.Agent.URL = "https://home.example.com"
	path, err := ConfigPathTOML()
	require.NoError(t, err)
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://home.example.com", loaded.Agent.URL)
	assert.True(t, strings.HasPrefix(path, home))
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENTUI_URL", "http://override:9000")
	t.Setenv("AGENTUI_API_KEY", "env-key")
	t.Setenv("AGENTUI_LOG_LEVEL", "debug")
	t.Setenv("AGENTUI_THEME", "dark")

	path := writeConfig(t, "[agent]\nurl = \"http://file:1\"\n")
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://override:9000", cfg.Agent.URL)
	assert.Equal(t, "env-key", cfg.Agent.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.Agent.URL = "/chat" }, "agent.url"},
		{"ftp url", func(c *Config) { c.Agent.URL = "ftp://agent" }, "agent.url"},
		{"negative timeout", func(c *Config) { c.Agent.TimeoutSecs = -1 }, "agent.timeout_secs"},
		{"too many retries", func(c *Config) { c.Agent.MaxRetries = 50 }, "agent.max_retries"},
		{"negative rpm", func(c *Config) { c.Agent.RequestsPerMinute = -5 }, "agent.requests_per_minute"},
		{"negative upload size", func(c *Config) { c.Agent.UploadMaxMB = -1 }, "agent.upload_max_mb"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"negative auto hide", func(c *Config) { c.UI.AutoHideMs = -1 }, "ui.auto_hide_ms"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			verrs, ok := err.(ValidateErrors)
			if !ok {
				t.Fatalf("expected ValidateErrors, got %T", err)
			}
			if len(verrs) != 1 || verrs[0].Field != tt.field {
				t.Errorf("got %v, want a single %s error", verrs, tt.field)
			}
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	assert.Equal(t, "a: bad; b: worse", errs.Error())
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Agent.APIKey = "k"
	cfg.UI.Markdown = false
	cfg.Log.File = "/tmp/agentui.log"
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# agentui configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

// =============================================================================
// GET / SET
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("agent.api_key", "abc"))
	require.NoError(t, cfg.Set("agent.max_retries", "5"))
	require.NoError(t, cfg.Set("ui.markdown", "false"))
	require.NoError(t, cfg.Set("ui.auto_hide_ms", 500))

	v, err := cfg.Get("agent.api_key")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	assert.Equal(t, 5, cfg.Agent.MaxRetries)
	assert.False(t, cfg.UI.Markdown)
	assert.Equal(t, 500, cfg.UI.AutoHideMs)

	_, err = cfg.Get("agent.nope")
	assert.Error(t, err)
	_, err = cfg.Get("agent.url.host")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("agent.max_retries", "many"))
	assert.Error(t, cfg.Set("", "x"))
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q): %v", key, err)
		}
	}
}

func TestString_RedactsAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Agent.APIKey = "super-secret"

	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.Contains(t, s, "[REDACTED]")
	assert.Equal(t, "super-secret", cfg.Agent.APIKey, "original untouched")
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[ui]\ntheme = \"dark\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type reload struct {
		cfg *Config
		err error
	}
	reloads := make(chan reload, 8)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config, err error) { reloads <- reload{cfg, err} })
	}()
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case r := <-reloads:
		require.NoError(t, r.err)
		assert.Equal(t, "light", r.cfg.UI.Theme)
	case <-time.After(2 * time.Second):
		t.Fatal("config change not observed")
	}
}
