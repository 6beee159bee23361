package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/dbox/internal/compose"
	"github.com/example/dbox/internal/distro"
	"github.com/example/dbox/internal/history"
	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/workdir"
)

func mkManifest(projects ...manifest.Project) *manifest.Manifest {
	m := &manifest.Manifest{
		Stack:    manifest.Stack{Name: "gluster", Paths: manifest.PathRules{}},
		Projects: projects,
	}
	for i := range m.Projects {
		if m.Projects[i].Paths == nil {
			m.Projects[i].Paths = manifest.PathRules{}
		}
	}
	return m
}

func newRunner(t *testing.T, m *manifest.Manifest, sources ...string) *Runner {
	t.Helper()
	layout, err := workdir.NewLayout(t.TempDir())
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, name := range sources {
		if err := os.MkdirAll(layout.SourceDir(name), 0o755); err != nil {
			t.Fatalf("mkdir source %s: %v", name, err)
		}
	}
	res, err := compose.Compose(compose.Inputs{
		Manifest: m,
		Layout:   layout,
		Subdir:   "host",
		Libdir:   "lib",
		Environ:  []string{"PATH=/usr/bin:/bin"},
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	return &Runner{
		Manifest: m,
		Layout:   layout,
		Env:      res,
		Target:   distro.Target{Name: "fedora", Version: "42"},
		Context:  "host",
		Out:      io.Discard,
		ErrOut:   io.Discard,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(raw)), "\n")
}

func TestBuild_StageOrderAndDirectories(t *testing.T) {
	tmp := t.TempDir()
	log := filepath.Join(tmp, "stages.log")
	stamp := func(stage string) string {
		return fmt.Sprintf(`echo %s:$(pwd) >> %q`, stage, log)
	}
	m := mkManifest(manifest.Project{
		Name:      "alpha",
		Configure: stamp("configure"),
		Build:     stamp("build"),
		Install:   stamp("install"),
		Fixup:     stamp("fixup"),
		UnitTest:  stamp("unittest"),
	})
	r := newRunner(t, m, "alpha")

	if err := r.Build(context.Background(), "", nil); err != nil {
		t.Fatalf("build: %v", err)
	}

	buildDir := r.Layout.BuildDir("alpha", "host")
	installDir := r.Layout.InstallDir("alpha", "host")
	want := []string{
		"configure:" + buildDir,
		"build:" + buildDir,
		"install:" + buildDir,
		"fixup:" + installDir,
		"unittest:" + buildDir,
	}
	got := readLines(t, log)
	if len(got) != len(want) {
		t.Fatalf("log = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuild_StageEnvOverlaysSnapshot(t *testing.T) {
	tmp := t.TempDir()
	pathOut := filepath.Join(tmp, "path.out")
	instOut := filepath.Join(tmp, "inst.out")
	m := mkManifest(manifest.Project{
		Name:  "alpha",
		Build: fmt.Sprintf(`printf '%%s' "$PATH" > %q && printf '%%s' "$DBOX_INSTALL_DIR" > %q`, pathOut, instOut),
	})
	r := newRunner(t, m, "alpha")

	if err := r.Build(context.Background(), "", []string{StageBuild}); err != nil {
		t.Fatalf("build: %v", err)
	}

	snap := r.Env.Project("alpha").Env
	raw, err := os.ReadFile(pathOut)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != snap["PATH"] {
		t.Fatalf("stage PATH = %q, snapshot %q", raw, snap["PATH"])
	}
	raw, err = os.ReadFile(instOut)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != r.Layout.InstallDir("alpha", "host") {
		t.Fatalf("stage DBOX_INSTALL_DIR = %q", raw)
	}
}

func TestBuild_FailFastAbortsRemainingProjects(t *testing.T) {
	tmp := t.TempDir()
	marker := filepath.Join(tmp, "beta.ran")
	m := mkManifest(
		manifest.Project{Name: "alpha", Configure: "true", Build: "exit 7"},
		manifest.Project{Name: "beta", Build: "touch " + marker},
	)
	r := newRunner(t, m, "alpha", "beta")
	store, err := history.Open(filepath.Join(r.Layout.Root, ".dbox", "history.sqlite"))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer store.Close()
	r.History = store

	err = r.Build(context.Background(), "", nil)
	if err == nil {
		t.Fatal("expected a stage failure")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if stageErr.Project != "alpha" || stageErr.Stage != StageBuild || stageErr.ExitCode != 7 {
		t.Fatalf("stage error = %+v", stageErr)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("a later project ran after the failure")
	}

	runs, err := store.ListRuns(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, %v", runs, err)
	}
	if runs[0].Status != "failed" {
		t.Fatalf("run status = %q", runs[0].Status)
	}
	stages, err := store.Stages(context.Background(), runs[0].ID)
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	if len(stages) != 2 || stages[0].Status != "ok" || stages[1].Status != "failed" || stages[1].ExitCode != 7 {
		t.Fatalf("stage records = %+v", stages)
	}
}

func TestBuild_SkipsProjectWithoutSources(t *testing.T) {
	tmp := t.TempDir()
	alphaOut := filepath.Join(tmp, "alpha.ran")
	betaOut := filepath.Join(tmp, "beta.ran")
	m := mkManifest(
		manifest.Project{Name: "alpha", Build: "touch " + alphaOut},
		manifest.Project{Name: "beta", Build: "touch " + betaOut},
	)
	r := newRunner(t, m, "beta")

	if err := r.Build(context.Background(), "", nil); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(alphaOut); !os.IsNotExist(err) {
		t.Fatal("unavailable project ran")
	}
	if _, err := os.Stat(betaOut); err != nil {
		t.Fatal("available project did not run")
	}
}

func TestBuild_StageSubset(t *testing.T) {
	tmp := t.TempDir()
	log := filepath.Join(tmp, "stages.log")
	m := mkManifest(manifest.Project{
		Name:      "alpha",
		Configure: "echo configure >> " + log,
		Build:     "echo build >> " + log,
		Install:   "echo install >> " + log,
	})
	r := newRunner(t, m, "alpha")

	stages, err := ParseStages("install,configure")
	if err != nil {
		t.Fatalf("parse stages: %v", err)
	}
	if err := r.Build(context.Background(), "", stages); err != nil {
		t.Fatalf("build: %v", err)
	}
	got := readLines(t, log)
	if len(got) != 2 || got[0] != "configure" || got[1] != "install" {
		t.Fatalf("log = %v", got)
	}
}

func TestTest_UndeclaredKindIsNoOp(t *testing.T) {
	tmp := t.TempDir()
	wipOut := filepath.Join(tmp, "wip.ran")
	m := mkManifest(manifest.Project{Name: "alpha", TestWIP: "touch " + wipOut})
	r := newRunner(t, m, "alpha")

	if err := r.Test(context.Background(), "", "smoke"); err != nil {
		t.Fatalf("test smoke: %v", err)
	}
	if _, err := os.Stat(wipOut); !os.IsNotExist(err) {
		t.Fatal("wip command ran for kind smoke")
	}

	if err := r.Test(context.Background(), "", "wip"); err != nil {
		t.Fatalf("test wip: %v", err)
	}
	if _, err := os.Stat(wipOut); err != nil {
		t.Fatal("wip command did not run")
	}

	if err := r.Test(context.Background(), "", "quick"); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestClone_OnlyMissingProjects(t *testing.T) {
	tmp := t.TempDir()
	alphaMark := filepath.Join(tmp, "alpha.cloned")
	m := mkManifest(
		manifest.Project{Name: "alpha", Clone: "touch " + alphaMark},
		manifest.Project{Name: "beta", Clone: "mkdir -p beta && echo x > beta/README"},
	)
	r := newRunner(t, m, "alpha")

	if err := r.Clone(context.Background(), ""); err != nil {
		t.Fatalf("clone: %v", err)
	}
	if _, err := os.Stat(alphaMark); !os.IsNotExist(err) {
		t.Fatal("clone ran for a project whose sources exist")
	}
	if !r.Layout.SourceExists("beta") {
		t.Fatal("clone did not produce beta's sources")
	}
	if _, err := os.Stat(filepath.Join(r.Layout.SourceDir("beta"), "README")); err != nil {
		t.Fatalf("clone cwd was not the workdir root: %v", err)
	}
}

func TestDeps_Pipeline(t *testing.T) {
	tmp := t.TempDir()
	log := filepath.Join(tmp, "deps.log")
	m := mkManifest(
		manifest.Project{Name: "alpha", BuildDeps: manifest.DistroSection{"fedora": "echo alpha >> " + log}},
		manifest.Project{Name: "beta"},
	)
	m.Stack.BuildDeps = manifest.DistroSection{"default": "echo stack >> " + log}
	r := newRunner(t, m)

	command, err := r.DepsCommand("", true)
	if err != nil {
		t.Fatalf("deps command: %v", err)
	}
	want := "echo stack >> " + log + " && echo alpha >> " + log
	if command != want {
		t.Fatalf("command = %q\nwant     %q", command, want)
	}

	if err := r.Deps(context.Background(), "", true); err != nil {
		t.Fatalf("deps: %v", err)
	}
	got := readLines(t, log)
	if len(got) != 2 || got[0] != "stack" || got[1] != "alpha" {
		t.Fatalf("log = %v", got)
	}

	command, err = r.DepsCommand("", false)
	if err != nil {
		t.Fatalf("deps command: %v", err)
	}
	if strings.Contains(command, "stack") {
		t.Fatalf("--stack=false kept the stack command: %q", command)
	}
}

func TestDeps_NothingDeclaredIsNoOp(t *testing.T) {
	m := mkManifest(manifest.Project{Name: "alpha"})
	r := newRunner(t, m)
	if err := r.Deps(context.Background(), "", true); err != nil {
		t.Fatalf("deps: %v", err)
	}
}

func TestOverview(t *testing.T) {
	m := mkManifest(
		manifest.Project{Name: "alpha", Configure: "x", Build: "y", TestWIP: "z", Clone: "c"},
		manifest.Project{Name: "beta", Install: "i"},
	)
	r := newRunner(t, m, "beta")

	rows, err := r.Overview("")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	a := rows[0]
	if a.Name != "alpha" || a.Available || !a.HasClone {
		t.Fatalf("alpha = %+v", a)
	}
	if strings.Join(a.Stages, ",") != "configure,build" || strings.Join(a.TestKinds, ",") != "wip" {
		t.Fatalf("alpha decls = %+v", a)
	}
	b := rows[1]
	if b.Name != "beta" || !b.Available || strings.Join(b.Stages, ",") != "install" {
		t.Fatalf("beta = %+v", b)
	}

	var buf bytes.Buffer
	if err := PrintStatusTable(&buf, "gluster", r.Target, "host", rows); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"STACK", "gluster", "fedora:42", "alpha", "no (clone declared)", "beta", "yes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}
