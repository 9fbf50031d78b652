// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/config"
	"github.com/jeranaias/agentui/internal/logging"
	"github.com/jeranaias/agentui/internal/session"
	"github.com/jeranaias/agentui/internal/ui/styles"
	"github.com/jeranaias/agentui/internal/uistate"
)

// Build information, set with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationNoConfig marks commands that must work without a valid config.
const annotationNoConfig = "agentui/no-config"

// globalOptions holds the persistent flags and what PersistentPreRunE
// builds from them.
type globalOptions struct {
	configPath string
	agentURL   string
	verbose    bool
	jsonOutput bool

	cfg    *config.Config
	logger *zap.Logger
}

// Execute runs the command tree against os.Args and returns the exit code.
func Execute() int {
	opts := &globalOptions{}
	root := newRootCmd(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		if opts.jsonOutput {
			_ = NewJSONErrorResponse(root.Name(), err, nil).Print(os.Stdout)
		} else {
			fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
		}
	}
	return GetExitCode(err)
}

// NewRootCmd creates the agentui command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "agentui",
		Short: "Terminal client for agents that drive their own UI",
		Long: `agentui talks to an agent over HTTP and server-sent events. The agent
streams its reply along with UI messages that show content, ask for file
uploads and offer buttons; agentui keeps that UI in sync while the reply
streams in.

Run without arguments to start the interactive chat.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoConfig] == "true" {
				opts.logger = zap.NewNop()
				return nil
			}
			return opts.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}}\n  Commit:    %s\n  Built:     %s\n", GitCommit, BuildDate))

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.agentui/config.toml)")
	flags.StringVar(&opts.agentURL, "url", "", "agent base URL (overrides agent.url)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")

	root.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newReplayCmd(opts),
		newStatusCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// init loads the configuration and builds the logger. Precedence is file,
// then AGENTUI_* environment variables, then flags.
func (o *globalOptions) init() error {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &ConfigError{Path: o.configPath, Err: err}
	}

	if o.agentURL != "" {
		cfg.Agent.URL = o.agentURL
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: err}
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return &ConfigError{Err: err}
	}

	o.cfg = cfg
	o.logger = logger.With(zap.String("version", Version))
	return nil
}

// resolveConfigPath returns --config or the default config file path.
func (o *globalOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.ConfigPathTOML()
}

// newSession builds a session that streams turns, uploads files and
// reports UI actions through client.
func (o *globalOptions) newSession(client *agent.Client) *session.Session {
	uiCfg := uistate.DefaultConfig()
	uiCfg.AutoHideDelay = o.cfg.UI.AutoHideDelay()
	uiCfg.Logger = o.logger

	var sess *session.Session
	sess = session.New(client, session.Config{
		UI:       uiCfg,
		Uploader: client,
		Logger:   o.logger,
		OnAction: func(ctx context.Context, action session.UIAction) error {
			return client.SendAction(ctx, agent.ActionRequest{
				SessionID: sess.ID(),
				Token:     action.Token,
				Data:      action.Data,
			})
		},
	})
	return sess
}
