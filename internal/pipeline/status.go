// Human-friendly project status table output.

package pipeline

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/dbox/internal/distro"
	"github.com/example/dbox/internal/ui"
)

// ProjectStatus is one status table row.
type ProjectStatus struct {
	Name      string
	Available bool
	Stages    []string
	TestKinds []string
	HasClone  bool
}

// Overview collects status rows for the matched projects in manifest order.
func (r *Runner) Overview(pattern string) ([]ProjectStatus, error) {
	projects, err := Select(r.Manifest, pattern)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectStatus, 0, len(projects))
	for _, p := range projects {
		st := ProjectStatus{
			Name:      p.Name,
			Available: r.Layout.SourceExists(p.Name),
			HasClone:  p.Clone != "",
		}
		for _, stage := range BuildStages {
			if p.CommandFor(stage) != "" {
				st.Stages = append(st.Stages, stage)
			}
		}
		for _, kind := range TestKinds {
			if p.CommandFor("test-"+kind) != "" {
				st.TestKinds = append(st.TestKinds, kind)
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// PrintStatusTable renders the stack header and one row per project.
func PrintStatusTable(w io.Writer, stack string, target distro.Target, context string, rows []ProjectStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	targetName := target.String()
	if targetName == "" {
		targetName = "unknown"
	}
	fmt.Fprintf(tw, "STACK\t%s\n", stack)
	fmt.Fprintf(tw, "TARGET\t%s\n", targetName)
	fmt.Fprintf(tw, "CONTEXT\t%s\n", context)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PROJECT\tAVAILABLE\tSTAGES\tTESTS")
	for _, row := range rows {
		avail := "yes"
		if !row.Available {
			avail = "no"
			if row.HasClone {
				avail = "no (clone declared)"
			}
		}
		stages := strings.Join(row.Stages, ",")
		if stages == "" {
			stages = "-"
		}
		tests := strings.Join(row.TestKinds, ",")
		if tests == "" {
			tests = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Name, avail, ui.Truncate(stages, 48), ui.Truncate(tests, 24))
	}
	return nil
}
