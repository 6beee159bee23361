// File: internal/compose/compose.go
// Brief: The environment composition fold over a stack's project list.

// Package compose builds the per-project environment snapshots a build
// pipeline runs its stages under. One pass walks the manifest's project list
// in declaration order as an explicit fold: each step yields the snapshot
// for that project and a new accumulator extended with the project's path
// contributions, so later projects see everything earlier projects export
// while snapshots already handed out never change.
package compose

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/workdir"
)

// Snapshot is a fully resolved environment: variable name to final value,
// with the variable's join character already applied.
type Snapshot map[string]string

// Environ renders the snapshot as KEY=VALUE pairs, sorted by key.
func (s Snapshot) Environ() []string {
	pairs := make([]string, 0, len(s))
	for k, v := range s {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return pairs
}

// Keys returns the variable names in the snapshot, sorted.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Inputs fixes everything one composition pass depends on.
type Inputs struct {
	Manifest *manifest.Manifest
	Layout   workdir.Layout

	// Subdir is the build context subdirectory (workdir.ContextSubdir).
	Subdir string

	// Libdir substitutes {libdir} in templates (distro.Libdir of the target).
	Libdir string

	// Environ is the process environment the pass seeds from, in
	// os.Environ() form.
	Environ []string

	// Overrides is the user-config env block. Keys overwrite the seed
	// wholesale: a path-like key replaces the seeded process value (project
	// contributions still stack in front of it), any other key is carried
	// into every snapshot as-is.
	Overrides map[string]string
}

// ProjectEnv pairs one project with the directories and snapshot its build
// stages must use.
type ProjectEnv struct {
	Name       string
	SourceDir  string
	BuildDir   string
	InstallDir string
	Env        Snapshot
}

// Result is a full composition pass: one entry per project in declaration
// order, plus the final snapshot with the per-project scratch variables
// stripped.
type Result struct {
	Projects []ProjectEnv
	Final    Snapshot
}

// Project returns the entry for the named project, or nil.
func (r *Result) Project(name string) *ProjectEnv {
	for i := range r.Projects {
		if r.Projects[i].Name == name {
			return &r.Projects[i]
		}
	}
	return nil
}

// Accumulator carries the state of a composition pass between steps. Steps
// extend it by copy: a snapshot already yielded for an earlier project is
// never aliased by later contributions.
type Accumulator struct {
	inputs Inputs
	names  []string // recognized variable set, sorted

	// contribs holds each variable's contribution entries, project blocks in
	// declaration order. The seeded process value joins after them, so the
	// invoking shell's paths survive at the lowest precedence.
	contribs map[string][]string
	seed     map[string]string
	plain    map[string]string // locale copies and opaque overrides
}

// Seed builds the step-zero accumulator: process-environment values for the
// recognized variables, the user-config overlay, and verbatim locale copies.
func Seed(in Inputs) (Accumulator, error) {
	if in.Manifest == nil {
		return Accumulator{}, fmt.Errorf("compose: manifest is nil")
	}
	env := environMap(in.Environ)
	names := recognizedVars(in.Manifest)
	acc := Accumulator{
		inputs:   in,
		names:    names,
		contribs: map[string][]string{},
		seed:     make(map[string]string, len(names)),
		plain:    map[string]string{},
	}

	recognized := make(map[string]struct{}, len(names))
	for _, name := range names {
		recognized[name] = struct{}{}
		if v, ok := env[name]; ok && v != "" {
			acc.seed[name] = v
		}
	}

	for k, v := range in.Overrides {
		if _, ok := recognized[k]; ok {
			if v == "" {
				delete(acc.seed, k)
			} else {
				acc.seed[k] = v
			}
			continue
		}
		acc.plain[k] = v
	}

	for k, v := range env {
		if isLocaleVar(k) && v != "" {
			acc.plain[k] = v
		}
	}
	return acc, nil
}

// Step yields the snapshot project p's stages must see (the accumulated
// state of everything before p, plus p's scratch directories) and a new
// accumulator carrying p's contribution for the projects after it.
func Step(acc Accumulator, p *manifest.Project) (ProjectEnv, Accumulator, error) {
	in := acc.inputs
	sourceDir := in.Layout.SourceDir(p.Name)
	buildDir := in.Layout.BuildDir(p.Name, in.Subdir)
	installDir := in.Layout.InstallDir(p.Name, in.Subdir)

	snap := acc.render()
	snap[EnvInstallDir] = installDir
	snap[EnvSourceDir] = sourceDir

	subs := map[string]string{TokenLibdir: in.Libdir}
	next := acc.extend()
	for _, name := range acc.names {
		block, err := contributionBlock(p, name, installDir, sourceDir, in.Manifest.Stack.Paths, subs)
		if err != nil {
			var gap *GapError
			if errors.As(err, &gap) {
				gap.Variable = name
				gap.Project = p.Name
			}
			return ProjectEnv{}, Accumulator{}, err
		}
		if len(block) == 0 {
			continue
		}
		merged := make([]string, 0, len(next.contribs[name])+len(block))
		merged = append(merged, next.contribs[name]...)
		merged = append(merged, block...)
		next.contribs[name] = merged
	}

	return ProjectEnv{
		Name:       p.Name,
		SourceDir:  sourceDir,
		BuildDir:   buildDir,
		InstallDir: installDir,
		Env:        snap,
	}, next, nil
}

// Final renders the post-iteration snapshot. The per-project scratch
// variables were never part of the accumulator, so nothing needs stripping.
func Final(acc Accumulator) Snapshot {
	return acc.render()
}

// Compose runs the whole pass over the manifest's project list.
func Compose(in Inputs) (*Result, error) {
	acc, err := Seed(in)
	if err != nil {
		return nil, err
	}
	res := &Result{Projects: make([]ProjectEnv, 0, len(in.Manifest.Projects))}
	for i := range in.Manifest.Projects {
		pe, next, err := Step(acc, &in.Manifest.Projects[i])
		if err != nil {
			return nil, err
		}
		res.Projects = append(res.Projects, pe)
		acc = next
	}
	res.Final = Final(acc)
	return res, nil
}

// contributionBlock resolves one project's entries for one variable:
// project-declared templates first, then the built-in defaults, then the
// stack-level extras, each group in declaration order. First-declared ends
// up leftmost, so declaration order maps directly to precedence.
func contributionBlock(p *manifest.Project, name, installDir, sourceDir string, stackPaths manifest.PathRules, subs map[string]string) ([]string, error) {
	groups := [][]string{p.Paths[name], builtinDefaults[name], stackPaths[name]}
	var block []string
	for _, templates := range groups {
		for _, tmpl := range templates {
			resolved, err := resolveTemplate(tmpl, installDir, sourceDir, subs)
			if err != nil {
				return nil, err
			}
			block = append(block, resolved)
		}
	}
	return block, nil
}

// extend returns a copy of the accumulator whose contribution map can be
// grown without touching the receiver. Seed and plain maps are read-only
// after Seed and are shared.
func (acc Accumulator) extend() Accumulator {
	contribs := make(map[string][]string, len(acc.contribs)+len(builtinDefaults))
	for k, v := range acc.contribs {
		contribs[k] = v
	}
	next := acc
	next.contribs = contribs
	return next
}

// render materializes the accumulator into a fresh snapshot. Contributions
// join in order with the variable's separator, the seeded process value last.
// Variables with nothing to say are omitted entirely.
func (acc Accumulator) render() Snapshot {
	out := make(Snapshot, len(acc.plain)+len(acc.names))
	for k, v := range acc.plain {
		out[k] = v
	}
	for _, name := range acc.names {
		entries := acc.contribs[name]
		seedVal, seeded := acc.seed[name]
		if len(entries) == 0 && !seeded {
			continue
		}
		parts := make([]string, 0, len(entries)+1)
		parts = append(parts, entries...)
		if seeded {
			parts = append(parts, seedVal)
		}
		out[name] = strings.Join(parts, SeparatorFor(name))
	}
	return out
}

func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
