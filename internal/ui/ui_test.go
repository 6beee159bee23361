package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"over-the-limit", 8, "over-th…"},
		{"anything", 0, ""},
		{"anything", 1, "a"},
		{"", 5, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.width); got != c.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", c.in, c.width, got, c.want)
		}
	}
}

func TestUnifiedDiff(t *testing.T) {
	from := "PATH=/usr/bin\nCC=gcc\n"
	to := "PATH=/inst/bin:/usr/bin\nCC=gcc\n"
	out := UnifiedDiff(from, to, "process", "composed")
	if !strings.Contains(out, "-PATH=/usr/bin") || !strings.Contains(out, "+PATH=/inst/bin:/usr/bin") {
		t.Fatalf("diff = %q", out)
	}
	if !strings.Contains(out, "--- process") || !strings.Contains(out, "+++ composed") {
		t.Fatalf("diff labels missing: %q", out)
	}
	if UnifiedDiff("same\n", "same\n", "a", "b") != "" {
		t.Fatal("equal texts must produce no diff")
	}
}

func TestStageBanner(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	var buf bytes.Buffer
	StageBanner(&buf, "unittest", "gluster", "fedora-42")
	if got := buf.String(); got != "==> Unittest gluster (fedora-42)\n" {
		t.Fatalf("banner = %q", got)
	}
}

func TestTerminalWidth_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if _, ok := TerminalWidth(&buf); ok {
		t.Fatal("a bytes.Buffer is not a terminal")
	}
	if IsTerminal(&buf) {
		t.Fatal("a bytes.Buffer is not a terminal")
	}
}
