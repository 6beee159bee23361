package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/dbox/internal/config"
	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/ui"
)

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [STACK]",
		Short: "Re-fetch stored stack manifests from their recorded URLs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts)
			if err != nil {
				return err
			}
			store := manifest.NewStore(config.Dir())
			var stacks []string
			if len(args) == 1 {
				stacks = []string{args[0]}
			} else {
				stacks, err = store.List()
				if err != nil {
					return err
				}
				if len(stacks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No stored stacks to update.")
					return nil
				}
			}
			for _, stack := range stacks {
				url := store.SourceURL(stack)
				if url == "" {
					if len(args) == 1 {
						return fmt.Errorf("stack %s has no recorded source URL", stack)
					}
					log.Warn("no recorded source URL, skipping", zap.String("stack", stack))
					continue
				}
				stop := ui.Progress(cmd.ErrOrStderr(), "Updating "+stack)
				raw, err := manifest.Fetch(cmd.Context(), url)
				if err == nil {
					_, err = manifest.Load(raw, url)
				}
				if err == nil {
					err = store.Save(stack, raw, url)
				}
				stop(err)
				if err != nil {
					return fmt.Errorf("update %s: %w", stack, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated stack %s from %s\n", stack, url)
			}
			return nil
		},
	}
	decorateCommandHelp(cmd, "Update Flags")
	return cmd
}
