package history

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

func PrintRunsTable(w io.Writer, runs []Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "RUN\tSTACK\tCOMMAND\tCONTEXT\tSTATUS\tPROJECTS\tSTARTED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.Stack,
			r.Command,
			r.Context,
			strings.ToUpper(r.Status),
			len(r.Projects),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			formatRunDuration(r),
		)
	}
	return nil
}

// PrintStagesTable renders the stage records of one run.
func PrintStagesTable(w io.Writer, stages []StageRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "PROJECT\tSTAGE\tSTATUS\tEXIT\tDURATION")
	for _, s := range stages {
		exit := "-"
		if s.Status != "ok" {
			exit = fmt.Sprintf("%d", s.ExitCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Project,
			s.Stage,
			strings.ToUpper(s.Status),
			exit,
			s.Duration.Round(time.Millisecond).String(),
		)
	}
	return nil
}

func formatRunDuration(r Run) string {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}
