package main

import (
	"github.com/spf13/cobra"
)

func newCloneCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone [PATTERN]",
		Short: "Run clone commands for projects whose sources are missing",
		Long: `Run each matched project's clone command from the working directory root.
Projects whose source directory already exists are left alone. Clone
commands run under the plain process environment; the first failure stops
the remaining projects.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			ws, err := openWorkspace(opts)
			if err != nil {
				return err
			}
			r, cleanup := ws.runner(cmd)
			defer cleanup()
			return r.Clone(cmd.Context(), pattern)
		},
	}
	decorateCommandHelp(cmd, "Clone Flags")
	return cmd
}
