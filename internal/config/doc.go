// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for agentui.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - AgentConfig: agent URL, credentials, retries and pacing
//   - UIConfig: theme, upload auto-hide delay, markdown rendering
//   - LogConfig: log level, format and destination
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (AGENTUI_*)
//   - ~/.agentui/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := agent.NewClient(cfg.Agent, logger)
//
// Follow edits while running:
//
//	go config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
