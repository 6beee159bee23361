package pipeline

import (
	"fmt"
	"strings"
)

// Build stage names, in execution order.
const (
	StageConfigure = "configure"
	StageBuild     = "build"
	StageInstall   = "install"
	StageFixup     = "fixup"
	StageUnitTest  = "unittest"
)

// Pseudo-stages recorded in run history.
const (
	StageClone = "clone"
	StageDeps  = "deps"
)

// BuildStages is the full stage sequence. All stages run in the project's
// build directory except fixup, which runs in the install directory.
var BuildStages = []string{StageConfigure, StageBuild, StageInstall, StageFixup, StageUnitTest}

// TestKinds are the accepted test selectors, mapping to the manifest's
// test-<kind> commands.
var TestKinds = []string{"wip", "smoke", "all"}

// ParseStages validates a comma-separated stage subset and returns it in
// canonical execution order. Empty input means the full sequence.
func ParseStages(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return append([]string(nil), BuildStages...), nil
	}
	want := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		known := false
		for _, stage := range BuildStages {
			if name == stage {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown stage %q (valid: %s)", name, strings.Join(BuildStages, ", "))
		}
		want[name] = true
	}
	if len(want) == 0 {
		return append([]string(nil), BuildStages...), nil
	}
	out := make([]string, 0, len(want))
	for _, stage := range BuildStages {
		if want[stage] {
			out = append(out, stage)
		}
	}
	return out, nil
}

// TestStage maps a test kind to its manifest command name.
func TestStage(kind string) (string, error) {
	for _, k := range TestKinds {
		if kind == k {
			return "test-" + kind, nil
		}
	}
	return "", fmt.Errorf("unknown test kind %q (valid: %s)", kind, strings.Join(TestKinds, ", "))
}
