// File: cmd/dbox/init.go
// Brief: CLI command wiring and implementation for 'init'.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/dbox/internal/config"
	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/workdir"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init STACK [DIR]",
		Short: "Initialize a working directory for a fetched stack",
		Long: `Copy the stored manifest for STACK into DIR/.dbox/stack.yaml (DIR defaults
to the current directory). The directory becomes a dbox working tree:
sources are cloned directly under it, build and install trees under .dbox.
Running init again refreshes the manifest copy and touches nothing else.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts)
			if err != nil {
				return err
			}
			stack := args[0]
			dir := "."
			if len(args) == 2 {
				dir = args[1]
			}
			store := manifest.NewStore(config.Dir())
			raw, err := os.ReadFile(store.ManifestPath(stack))
			if err != nil {
				if os.IsNotExist(err) {
					return &manifest.NotFoundError{Kind: "stack", Name: stack}
				}
				return err
			}
			if _, err := manifest.Load(raw, store.ManifestPath(stack)); err != nil {
				return err
			}
			layout, err := workdir.NewLayout(dir)
			if err != nil {
				return err
			}
			if err := layout.WriteStackManifest(raw); err != nil {
				return err
			}
			log.Debug("working directory initialized",
				zap.String("stack", stack),
				zap.String("root", layout.Root))
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s working directory at %s\n", stack, layout.Root)
			return nil
		},
	}
	decorateCommandHelp(cmd, "Init Flags")
	return cmd
}
