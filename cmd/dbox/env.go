// File: cmd/dbox/env.go
// Brief: CLI command wiring and implementation for 'env'.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/ui"
)

func newEnvCommand(opts *rootOptions) *cobra.Command {
	var showDiff bool
	var project string
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the composed environment as KEY=VALUE lines",
		Long: `Compose the stack environment and print the final snapshot, one KEY=VALUE
per line, suitable for eval in a shell. --project prints the snapshot a
specific project's stages would see instead. --diff shows what would change
relative to the values currently in the process environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(opts)
			if err != nil {
				return err
			}
			env, err := ws.composeEnv()
			if err != nil {
				return err
			}
			snap := env.Final
			if project != "" {
				pe := env.Project(project)
				if pe == nil {
					return fmt.Errorf("manifest does not declare project %s", project)
				}
				snap = pe.Env
			}
			if showDiff {
				var current []string
				for _, key := range snap.Keys() {
					if val, ok := os.LookupEnv(key); ok {
						current = append(current, key+"="+val)
					}
				}
				diff := ui.UnifiedDiff(
					strings.Join(current, "\n"),
					strings.Join(snap.Environ(), "\n"),
					"process", "composed")
				if diff != "" {
					fmt.Fprint(cmd.OutOrStdout(), diff)
				}
				return nil
			}
			for _, kv := range snap.Environ() {
				fmt.Fprintln(cmd.OutOrStdout(), kv)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show a unified diff against the current process environment")
	cmd.Flags().StringVar(&project, "project", "", "Print the per-project snapshot instead of the final one")
	decorateCommandHelp(cmd, "Env Flags")
	return cmd
}
