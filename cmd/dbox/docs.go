package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/example/dbox/docs"
	"github.com/example/dbox/internal/ui"
)

func newDocsCommand() *cobra.Command {
	var plain bool
	topicNames := make([]string, 0, len(docs.Topics()))
	for _, t := range docs.Topics() {
		topicNames = append(topicNames, t.Name)
	}
	cmd := &cobra.Command{
		Use:       "docs [TOPIC]",
		Short:     "Show built-in documentation rendered for the terminal",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: topicNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, "Available topics:")
				for _, t := range docs.Topics() {
					fmt.Fprintf(out, "  %-12s %s\n", t.Name, t.Title)
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Run 'dbox docs TOPIC' to read one.")
				return nil
			}
			topic, ok := docs.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown topic %q (available: %s)", args[0], strings.Join(topicNames, ", "))
			}
			if plain || !ui.IsTerminal(out) {
				fmt.Fprintln(out, strings.TrimSpace(topic.Body))
				return nil
			}
			width := 100
			if w, ok := ui.TerminalWidth(out); ok && w < width {
				width = w
			}
			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return err
			}
			rendered, err := renderer.Render(topic.Body)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print raw markdown without terminal rendering")
	decorateCommandHelp(cmd, "Docs Flags")
	return cmd
}
