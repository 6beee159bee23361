package main

import (
	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/distro"
	"github.com/example/dbox/internal/pipeline"
)

func newBuildCommand(opts *rootOptions) *cobra.Command {
	var stagesFlag string
	var base string
	cmd := &cobra.Command{
		Use:   "build [PATTERN]",
		Short: "Run the build pipeline for matching projects",
		Long: `Run the stage sequence configure, build, install, fixup, unittest for every
matched project with sources present, in manifest order, under the composed
environment. The first failed stage aborts the remaining projects. With
--base the whole pipeline runs inside the stack image built for that base.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			stages, err := pipeline.ParseStages(stagesFlag)
			if err != nil {
				return err
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
				var flags [][2]string
				if stagesFlag != "" {
					flags = append(flags, [2]string{"stages", stagesFlag})
				}
				argv := innerArgs("build", pattern, ws.Layout.Root, flags)
				return runInContainer(cmd.Context(), cmd, ws, opts, target, argv, false)
			}
			r, cleanup := ws.runner(cmd)
			defer cleanup()
			env, err := ws.composeEnv()
			if err != nil {
				return err
			}
			r.Env = env
			return r.Build(cmd.Context(), pattern, stages)
		},
	}
	cmd.Flags().StringVar(&stagesFlag, "stages", "", "Comma-separated stage subset to run (configure,build,install,fixup,unittest)")
	cmd.Flags().Var(newBaseValue(&base), "base", "Run inside the stack image for this base (NAME:VERSION)")
	decorateCommandHelp(cmd, "Build Flags")
	return cmd
}
