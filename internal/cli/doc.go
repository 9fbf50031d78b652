// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the agentui command tree.
//
// Commands are built with cobra. The root command loads the configuration
// (file, then AGENTUI_* environment overrides, then flags) and the logger
// once in PersistentPreRunE and hands them to every subcommand.
//
// # Commands
//
//   - chat: interactive chat with the agent (default when no command is given)
//   - ask: one turn, reply streamed to stdout, panel printed after it
//   - replay: feed a recorded event stream through the demultiplexer offline
//   - status: agent health check and configuration summary
//   - config: show, path, init, get and set configuration values
//   - version: build information
//
// ask, replay, status, config show and version accept --json and print a
// JSONResponse instead of text.
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
package cli
