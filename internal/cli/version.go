// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number of agentui",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return NewJSONResponse("version", VersionData{
					Version:   Version,
					GitCommit: GitCommit,
					BuildDate: BuildDate,
					GoVersion: runtime.Version(),
				}).Print(out)
			}
			fmt.Fprintf(out, "agentui %s\n", Version)
			fmt.Fprintf(out, "  Commit:    %s\n", GitCommit)
			fmt.Fprintf(out, "  Built:     %s\n", BuildDate)
			fmt.Fprintf(out, "  Go:        %s\n", runtime.Version())
			return nil
		},
	}
}
