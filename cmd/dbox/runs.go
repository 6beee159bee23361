package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/history"
)

func newRunsCommand(opts *rootOptions) *cobra.Command {
	var limit int
	var showStages string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs for this working tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(opts)
			if err != nil {
				return err
			}
			store, err := history.Open(ws.Layout.HistoryDB())
			if err != nil {
				return err
			}
			defer store.Close()
			if showStages != "" {
				runID := showStages
				if runID == "last" {
					runID, err = store.MostRecentRunID(cmd.Context())
					if err != nil {
						return err
					}
					if runID == "" {
						fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
						return nil
					}
				}
				stages, err := store.Stages(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(stages) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No stage records for run %s.\n", runID)
					return nil
				}
				return history.PrintStagesTable(cmd.OutOrStdout(), stages)
			}
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}
			return history.PrintRunsTable(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (newest first)")
	cmd.Flags().StringVar(&showStages, "stages", "", "Show the stage records of one run ID instead ('last' for the most recent)")
	decorateCommandHelp(cmd, "Runs Flags")
	return cmd
}
