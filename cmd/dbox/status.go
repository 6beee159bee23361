package main

import (
	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/pipeline"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [PATTERN]",
		Short: "Show projects, source availability, and declared stages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			ws, err := openWorkspace(opts)
			if err != nil {
				return err
			}
			r := &pipeline.Runner{
				Manifest: ws.Manifest,
				Layout:   ws.Layout,
				Target:   ws.Target,
				Context:  ws.Context,
				Log:      ws.Log,
			}
			rows, err := r.Overview(pattern)
			if err != nil {
				return err
			}
			return pipeline.PrintStatusTable(cmd.OutOrStdout(), ws.Manifest.Stack.Name, ws.Target, ws.Context, rows)
		},
	}
	decorateCommandHelp(cmd, "Status Flags")
	return cmd
}
