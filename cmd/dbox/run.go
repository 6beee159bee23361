package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/container"
	"github.com/example/dbox/internal/distro"
	"github.com/example/dbox/internal/ui"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "run [--base NAME:VERSION] -- CMD [ARG...]",
		Short: "Run a command inside the stack image",
		Long: `Run an arbitrary command inside the stack's container image with the
working tree mounted at its host path and the current directory preserved.
Without --base the image for the detected target distro is used; the
target must then carry a version so the image tag is unambiguous.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := args
			if at := cmd.ArgsLenAtDash(); at >= 0 {
				command = args[at:]
			}
			if len(command) == 0 {
				return fmt.Errorf("no command given after --")
			}
			ws, err := openWorkspace(opts)
			if err != nil {
				return err
			}
			target := ws.Target
			if base != "" {
				target, err = distro.Parse(base)
				if err != nil {
					return err
				}
			}
			if target.Version == "" {
				return fmt.Errorf("target %s has no version; pass --base NAME:VERSION", target)
			}
			image, err := ws.imageName(target)
			if err != nil {
				return err
			}
			eng, err := ws.engine(cmd)
			if err != nil {
				return err
			}
			self, err := container.SelfMount()
			if err != nil {
				return err
			}
			workdir := ws.Layout.Root
			if cwd, err := os.Getwd(); err == nil && underRoot(cwd, ws.Layout.Root) {
				workdir = cwd
			}
			return eng.Run(cmd.Context(), container.RunOptions{
				Image:   image,
				Workdir: workdir,
				Mounts: []container.Mount{
					{HostPath: ws.Layout.Root, ContainerPath: ws.Layout.Root},
					self,
				},
				Interactive: ui.IsTerminal(os.Stdin),
				Command:     command,
			})
		},
	}
	cmd.Flags().Var(newBaseValue(&base), "base", "Stack image base to run in (NAME:VERSION)")
	decorateCommandHelp(cmd, "Run Flags")
	return cmd
}
