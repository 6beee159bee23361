package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/pipeline"
)

func newDepsCommand(opts *rootOptions) *cobra.Command {
	var includeStack bool
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "deps [PATTERN]",
		Short: "Install build dependencies for the stack and matched projects",
		Long: `Resolve the builddeps commands of the stack and every matched project for
the target distro and run them as one shell pipeline joined with '&&'.
Sections with no entry for the target contribute nothing; when nothing
resolves at all the command is a no-op.`,
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
			if printOnly {
				r := &pipeline.Runner{Manifest: ws.Manifest, Layout: ws.Layout, Target: ws.Target}
				command, err := r.DepsCommand(pattern, includeStack)
				if err != nil {
					return err
				}
				if command != "" {
					fmt.Fprintln(cmd.OutOrStdout(), command)
				}
				return nil
			}
			r, cleanup := ws.runner(cmd)
			defer cleanup()
			return r.Deps(cmd.Context(), pattern, includeStack)
		},
	}
	cmd.Flags().BoolVar(&includeStack, "stack", true, "Include the stack's own builddeps command")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the resolved pipeline instead of running it")
	decorateCommandHelp(cmd, "Deps Flags")
	return cmd
}
