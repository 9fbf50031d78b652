// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/ui/styles"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the agent is reachable and show the active settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}
}

func runStatus(cmd *cobra.Command, opts *globalOptions) error {
	out := cmd.OutOrStdout()
	client := agent.NewClient(opts.cfg.Agent, opts.logger)

	path, _ := opts.resolveConfigPath()
	_, statErr := os.Stat(path)
	data := StatusData{
		AgentURL:   client.BaseURL(),
		ConfigPath: path,
		ConfigFile: statErr == nil,
		APIKeySet:  opts.cfg.Agent.APIKey != "",
		Theme:      opts.cfg.UI.Theme,
		LogLevel:   opts.cfg.Log.Level,
	}

	ctx := cmd.Context()
	if timeout := opts.cfg.Agent.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err := client.Health(ctx)
	data.LatencyMs = time.Since(start).Milliseconds()
	data.Reachable = err == nil
	if err != nil {
		data.Error = err.Error()
	}

	if opts.jsonOutput {
		if err != nil {
			_ = NewJSONErrorResponse("status", err, data).Print(out)
			return &reportedError{err: err}
		}
		return NewJSONResponse("status", data).Print(out)
	}

	if err == nil {
		fmt.Fprintf(out, "%s agent reachable at %s (%dms)\n", styles.StatusIndicators.Success, data.AgentURL, data.LatencyMs)
	} else {
		fmt.Fprintf(out, "%s agent unreachable at %s: %v\n", styles.StatusIndicators.Error, data.AgentURL, err)
	}
	configNote := "not found, using defaults"
	if data.ConfigFile {
		configNote = "loaded"
	}
	fmt.Fprintf(out, "%s config %s (%s)\n", styles.StatusIndicators.Info, data.ConfigPath, configNote)
	apiKey := "not set"
	if data.APIKeySet {
		apiKey = "set"
	}
	fmt.Fprintf(out, "%s api key %s, theme %s, log level %s\n", styles.StatusIndicators.Info, apiKey, data.Theme, data.LogLevel)

	if err != nil {
		return &reportedError{err: err}
	}
	return nil
}
