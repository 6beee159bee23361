package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var stageTitleCaser = cases.Title(language.Und, cases.NoLower)

var (
	bannerArrow = color.New(color.FgCyan, color.Bold)
	bannerName  = color.New(color.Bold)
	okMark      = color.New(color.FgGreen, color.Bold)
	failMark    = color.New(color.FgRed, color.Bold)
)

// StageBanner announces one stage of one project, e.g.
// "==> Build gluster (fedora-42)".
func StageBanner(w io.Writer, stage, project, context string) {
	fmt.Fprintf(w, "%s %s %s (%s)\n",
		bannerArrow.Sprint("==>"), stageTitleCaser.String(stage), bannerName.Sprint(project), context)
}

// Headerf prints a bold section header.
func Headerf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, bannerName.Sprintf(format, args...))
}

// Successf prints a green-marked result line.
func Successf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark.Sprint("ok:"), fmt.Sprintf(format, args...))
}

// Failf prints a red-marked result line.
func Failf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", failMark.Sprint("failed:"), fmt.Sprintf(format, args...))
}
