// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/ui/chat"
	"github.com/jeranaias/agentui/internal/ui/styles"
)

func newChatCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the agent",
		Long: `Opens the full-screen chat view. Replies stream into the transcript and
the agent's panel (content, upload widget, buttons) is shown below it.

Keys: enter sends, or presses the focused button when the input is empty.
tab/shift+tab move button focus, ctrl+o uploads a file, esc cancels.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}
}

// runChat runs the bubbletea chat program until the user quits.
func runChat(cmd *cobra.Command, opts *globalOptions) error {
	if !IsTTY() || !IsStdoutTTY() {
		return &CommandError{
			Command: "chat",
			Action:  "start",
			Reason:  "chat needs an interactive terminal, use ask for scripts",
			Err:     ErrNotTerminal,
		}
	}

	client := agent.NewClient(opts.cfg.Agent, opts.logger)
	sess := opts.newSession(client)
	defer sess.Close()

	m := chat.New(sess, chat.Config{
		Theme:    styles.NewTheme(opts.cfg.UI.Theme),
		AgentURL: client.BaseURL(),
		Markdown: opts.cfg.UI.Markdown,
		Logger:   opts.logger,
	})
	defer m.Close()

	opts.logger.Info("chat started", zap.String("session_id", sess.ID()), zap.String("agent", client.BaseURL()))

	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-cmd.Context().Done()
		p.Quit()
	}()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}
