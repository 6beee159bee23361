package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/dbox/internal/config"
	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/ui"
)

func newFetchCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch URL|PATH",
		Short: "Download a stack manifest into the local store",
		Long: `Fetch a stack manifest from an HTTP(S) URL or a local path, validate it,
and store it under the dbox config directory keyed by the stack's name.
URLs are recorded alongside so 'dbox update' can re-fetch later.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts)
			if err != nil {
				return err
			}
			src := args[0]
			stop := ui.Progress(cmd.ErrOrStderr(), "Fetching "+src)
			raw, err := manifest.Fetch(cmd.Context(), src)
			stop(err)
			if err != nil {
				return err
			}
			m, err := manifest.Load(raw, src)
			if err != nil {
				return err
			}
			sourceURL := ""
			if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
				sourceURL = src
			}
			store := manifest.NewStore(config.Dir())
			if err := store.Save(m.Stack.Name, raw, sourceURL); err != nil {
				return err
			}
			log.Debug("stack manifest stored",
				zap.String("stack", m.Stack.Name),
				zap.String("source", src))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved stack %s (%d projects) to %s\n",
				m.Stack.Name, len(m.Projects), store.ManifestPath(m.Stack.Name))
			return nil
		},
	}
	decorateCommandHelp(cmd, "Fetch Flags")
	return cmd
}
