// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/agentui/internal/config"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the agentui configuration",
		Long: `Configuration lives in ~/.agentui/config.toml (or the file given with
--config). AGENTUI_URL, AGENTUI_API_KEY, AGENTUI_LOG_LEVEL and AGENTUI_THEME
override it; the --url and --verbose flags override both.

Keys use dot notation, for example agent.url or ui.auto_hide_ms.`,
	}
	cmd.AddCommand(
		newConfigShowCmd(opts),
		newConfigPathCmd(opts),
		newConfigInitCmd(opts),
		newConfigGetCmd(opts),
		newConfigSetCmd(opts),
	)
	return cmd
}

func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (API key redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			safe := opts.cfg.Clone()
			if safe.Agent.APIKey != "" {
				safe.Agent.APIKey = "[REDACTED]"
			}
			if opts.jsonOutput {
				return NewJSONResponse("config show", safe).Print(out)
			}
			if err := toml.NewEncoder(out).Encode(safe); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return nil
		},
	}
}

func newConfigPathCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the config file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveConfigPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a config file with the default settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveConfigPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &CommandError{
					Command: "config",
					Action:  "init",
					Reason:  path + " already exists (use --force to overwrite)",
				}
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

func newConfigGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one effective configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.GetAllKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := opts.cfg.Get(args[0])
			if err != nil {
				return &CommandError{Command: "config", Action: "get", Reason: "unknown key " + args[0], Err: err}
			}
			if strings.EqualFold(args[0], "agent.api_key") && value != "" {
				value = "[REDACTED]"
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the config file",
		Long: `Sets one key in the config file and saves it. Only the file is changed;
environment overrides are not written back.`,
		Args:        cobra.ExactArgs(2),
		ValidArgs:   config.GetAllKeys(),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveConfigPath()
			if err != nil {
				return &ConfigError{Err: err}
			}

			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if err := config.LoadTOML(cfg, path); err != nil {
					return &ConfigError{Path: path, Err: err}
				}
			} else if !errors.Is(statErr, os.ErrNotExist) {
				return &ConfigError{Path: path, Err: statErr}
			}

			if err := cfg.Set(args[0], args[1]); err != nil {
				return &CommandError{Command: "config", Action: "set", Reason: args[0], Err: err}
			}
			if err := cfg.Validate(); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}
