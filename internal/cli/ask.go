// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/agent"
	"github.com/jeranaias/agentui/internal/stream"
	"github.com/jeranaias/agentui/internal/ui/components"
)

func newAskCmd(opts *globalOptions) *cobra.Command {
	var noPanel bool

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one message and print the reply",
		Long: `Runs a single turn. The reply is streamed to stdout as it arrives and the
agent's panel is printed once the turn ends. With --json nothing is
streamed; the reply and the final UI state are printed as one JSON object.`,
		Example: `  agentui ask "what plans do you offer?"
  agentui ask --json "summarise my order" | jq .data.ui`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, strings.Join(args, " "), !noPanel)
		},
	}
	cmd.Flags().BoolVar(&noPanel, "no-panel", false, "do not print the agent's panel after the reply")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *globalOptions, prompt string, showPanel bool) error {
	out := cmd.OutOrStdout()
	client := agent.NewClient(opts.cfg.Agent, opts.logger)
	sess := opts.newSession(client)
	defer sess.Close()

	var printer *textPrinter
	var sink stream.TextSink
	if !opts.jsonOutput {
		printer = &textPrinter{w: out}
		sink = printer
	}

	start := time.Now()
	res, err := sess.Send(cmd.Context(), prompt, sink)
	state := sess.UI().State()
	opts.logger.Debug("ask finished",
		zap.Int("frames", res.Frames),
		zap.Int("dropped", res.Dropped),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))

	if opts.jsonOutput {
		data := AskData{
			SessionID:  sess.ID(),
			Reply:      res.Text,
			Final:      res.Final,
			UI:         state,
			Frames:     res.Frames,
			Dropped:    res.Dropped,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			_ = NewJSONErrorResponse("ask", err, data).Print(out)
			return &reportedError{err: err}
		}
		return NewJSONResponse("ask", data).Print(out)
	}

	printer.finish(res.Text)
	if err != nil {
		return err
	}
	if showPanel {
		panel := components.RenderPanel(state, outputTheme(opts.cfg.UI.Theme, out), terminalWidth(out))
		if panel != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, panel)
		}
	}
	return nil
}

// =============================================================================
// TEXT PRINTER
// =============================================================================

// textPrinter is a TextSink that writes reply text to w as it grows.
type textPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	printed string
}

// OnText implements stream.TextSink.
func (p *textPrinter) OnText(accumulated string) {
	p.write(accumulated)
}

// OnFinal implements stream.TextSink.
func (p *textPrinter) OnFinal(text string) {
	p.write(text)
}

// write prints the part of text not yet printed. Text that no longer extends
// what was printed starts over on a new line.
func (p *textPrinter) write(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.HasPrefix(text, p.printed) {
		io.WriteString(p.w, text[len(p.printed):])
	} else {
		io.WriteString(p.w, "\n"+text)
	}
	p.printed = text
}

// finish prints whatever of text was not streamed, such as an error note,
// and ends the line.
func (p *textPrinter) finish(text string) {
	if text != "" {
		p.write(text)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
		io.WriteString(p.w, "\n")
	}
}
