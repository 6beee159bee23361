package main

import (
	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/distro"
)

func newTestCommand(opts *rootOptions) *cobra.Command {
	kind := "wip"
	var base string
	cmd := &cobra.Command{
		Use:   "test [PATTERN]",
		Short: "Run declared test commands for matching projects",
		Long: `Run exactly one test command per matched project: test-wip, test-smoke, or
test-all depending on --kind. Projects that do not declare the selected
kind are skipped silently. With --base the tests run inside the stack
image built for that base.`,
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
			if base != "" {
				target, err := distro.Parse(base)
				if err != nil {
					return err
				}
				argv := innerArgs("test", pattern, ws.Layout.Root, [][2]string{{"kind", kind}})
				return runInContainer(cmd.Context(), cmd, ws, opts, target, argv, false)
			}
			r, cleanup := ws.runner(cmd)
			defer cleanup()
			env, err := ws.composeEnv()
			if err != nil {
				return err
			}
			r.Env = env
			return r.Test(cmd.Context(), pattern, kind)
		},
	}
	cmd.Flags().Var(newEnumStringValue(&kind, "wip", "smoke", "all"), "kind", "Test kind to run (wip, smoke, all)")
	cmd.Flags().Var(newBaseValue(&base), "base", "Run inside the stack image for this base (NAME:VERSION)")
	decorateCommandHelp(cmd, "Test Flags")
	return cmd
}
