// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/agentui/internal/stream"
	"github.com/jeranaias/agentui/internal/ui/components"
	"github.com/jeranaias/agentui/internal/uistate"
	"github.com/jeranaias/agentui/internal/util"
)

func newReplayCmd(opts *globalOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Run a recorded event stream through the demultiplexer",
		Long: `Reads a recorded agent response (the raw server-sent event body) and
processes it offline exactly as a live turn would be: UI messages update a
fresh UI state, text deltas build the reply. Prints the reply, the frame
counts, any state delta diagnostics and the resulting panel.

With --watch the file is replayed again every time it is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &replayer{opts: opts, out: cmd.OutOrStdout()}
			if err := r.run(args[0]); err != nil && !watch {
				return err
			}
			if !watch {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, ctrl+c to stop\n", args[0])
			return util.WatchFile(cmd.Context(), args[0], util.DefaultDebounce, func() {
				if err := r.run(args[0]); err != nil {
					opts.logger.Warn("replay failed", zap.String("file", args[0]), zap.Error(err))
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "replay again whenever the file changes")
	return cmd
}

// replayer runs and prints replays. Watch callbacks may overlap, so output
// is serialised.
type replayer struct {
	mu   sync.Mutex
	opts *globalOptions
	out  io.Writer
}

func (r *replayer) run(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := ReplayFile(path, r.opts.logger)
	if r.opts.jsonOutput {
		if err != nil {
			_ = NewJSONErrorResponse("replay", err, data).Print(r.out)
			return &reportedError{err: err}
		}
		return NewJSONResponse("replay", data).Print(r.out)
	}
	if data.File == "" {
		return err
	}

	fmt.Fprintf(r.out, "== %s ==\n", data.File)
	if data.Reply != "" {
		fmt.Fprintln(r.out, data.Reply)
	}
	fmt.Fprintf(r.out, "frames: %d  dropped: %d  done: %t\n", data.Frames, data.Dropped, data.Done)
	for _, d := range data.Diagnostics {
		fmt.Fprintf(r.out, "diagnostic: %s\n", d)
	}
	panel := components.RenderPanel(data.UI, outputTheme(r.opts.cfg.UI.Theme, r.out), terminalWidth(r.out))
	if panel != "" {
		fmt.Fprintln(r.out, panel)
	}
	return err
}

// ReplayFile processes a recorded stream body against a fresh UI state. The
// returned data is filled in even when the stream ends with an agent error.
func ReplayFile(path string, logger *zap.Logger) (ReplayData, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return ReplayData{}, fmt.Errorf("failed to read recording: %w", err)
	}

	var diags []string
	uiCfg := uistate.DefaultConfig()
	uiCfg.Logger = logger
	uiCfg.OnDiagnostic = func(d uistate.Diagnostic) {
		diags = append(diags, d.String())
	}
	mgr := uistate.NewManager(uiCfg)
	defer mgr.Close()

	res, err := stream.New(mgr, nil, logger).ProcessBody(string(body))
	return ReplayData{
		File:        path,
		Reply:       res.Text,
		Final:       res.Final,
		Done:        res.Done,
		UI:          mgr.State(),
		Frames:      res.Frames,
		Dropped:     res.Dropped,
		Diagnostics: diags,
	}, err
}
