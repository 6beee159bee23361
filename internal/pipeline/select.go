// Package pipeline sequences build stages over a stack's projects: glob
// selection in manifest order, availability checks, shell execution of
// stage commands under composed environments, and the dependency-install
// pipeline. Execution is strictly sequential; the first failure aborts
// every remaining stage and project.
package pipeline

import (
	"fmt"

	"github.com/moby/patternmatcher"

	"github.com/example/dbox/internal/manifest"
)

// Select returns the projects whose names match the glob pattern, in
// manifest declaration order. An empty pattern selects every project; a
// pattern matching none is an error.
func Select(m *manifest.Manifest, pattern string) ([]*manifest.Project, error) {
	if pattern == "" {
		out := make([]*manifest.Project, 0, len(m.Projects))
		for i := range m.Projects {
			out = append(out, &m.Projects[i])
		}
		return out, nil
	}
	matcher, err := patternmatcher.New([]string{pattern})
	if err != nil {
		return nil, fmt.Errorf("bad project pattern %q: %w", pattern, err)
	}
	var out []*manifest.Project
	for i := range m.Projects {
		ok, err := matcher.MatchesOrParentMatches(m.Projects[i].Name)
		if err != nil {
			return nil, fmt.Errorf("match %q against %q: %w", m.Projects[i].Name, pattern, err)
		}
		if ok {
			out = append(out, &m.Projects[i])
		}
	}
	if len(out) == 0 {
		return nil, &manifest.NotFoundError{Kind: "project", Name: pattern}
	}
	return out, nil
}
