// File: internal/pipeline/runner.go
// Brief: Sequential stage execution with composed environments.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/dbox/internal/compose"
	"github.com/example/dbox/internal/distro"
	"github.com/example/dbox/internal/history"
	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/ui"
	"github.com/example/dbox/internal/workdir"
)

// StageError reports a failed stage command. The pipeline stops at the
// first one: no later stage of the same project runs, and no later project
// is attempted.
type StageError struct {
	Project  string
	Stage    string
	Command  string
	ExitCode int // -1 when the command did not run or was signalled
	Err      error
}

func (e *StageError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: %s stage failed with exit status %d", e.Project, e.Stage, e.ExitCode)
	}
	return fmt.Sprintf("%s: %s stage failed: %v", e.Project, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Runner executes stage commands for one working tree and one build
// context. All fields except Manifest, Layout, and Env are optional.
type Runner struct {
	Manifest *manifest.Manifest
	Layout   workdir.Layout

	// Env holds the composed per-project snapshots. Required for Build and
	// Test; Clone and Deps run under the plain process environment.
	Env *compose.Result

	// Target is the distro identity builddeps sections resolve against.
	Target distro.Target

	// Context is the build context subdirectory (workdir.ContextSubdir).
	Context string

	Log     *zap.Logger
	In      io.Reader
	Out     io.Writer
	ErrOut  io.Writer
	History *history.Store
}

func (r *Runner) logger() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

func (r *Runner) errOut() io.Writer {
	if r.ErrOut != nil {
		return r.ErrOut
	}
	return os.Stderr
}

// Build runs the stage sequence over the matched projects. Projects whose
// sources are absent are skipped; everything after the first failed stage
// is abandoned.
func (r *Runner) Build(ctx context.Context, pattern string, stages []string) error {
	if len(stages) == 0 {
		stages = BuildStages
	}
	projects, err := Select(r.Manifest, pattern)
	if err != nil {
		return err
	}
	runID := r.beginRun(ctx, "build", projects)
	err = r.buildProjects(ctx, runID, projects, stages)
	r.finishRun(ctx, runID, err)
	return err
}

func (r *Runner) buildProjects(ctx context.Context, runID string, projects []*manifest.Project, stages []string) error {
	for _, p := range projects {
		if !r.Layout.SourceExists(p.Name) {
			r.logger().Info("project sources not present, skipping",
				zap.String("project", p.Name),
				zap.String("dir", r.Layout.SourceDir(p.Name)))
			continue
		}
		pe := r.Env.Project(p.Name)
		if pe == nil {
			return fmt.Errorf("no composed environment for project %s", p.Name)
		}
		if err := r.Layout.EnsureProjectDirs(p.Name, r.Context); err != nil {
			return err
		}
		for _, stage := range stages {
			command := p.CommandFor(stage)
			if command == "" {
				r.logger().Debug("stage not declared",
					zap.String("project", p.Name), zap.String("stage", stage))
				continue
			}
			dir := pe.BuildDir
			if stage == StageFixup {
				dir = pe.InstallDir
			}
			if err := r.runStage(ctx, runID, p.Name, stage, command, dir, pe.Env); err != nil {
				return err
			}
		}
	}
	return nil
}

// Test runs the test-<kind> command of every matched project that declares
// it. Undeclared kinds are a silent no-op per project.
func (r *Runner) Test(ctx context.Context, pattern, kind string) error {
	stage, err := TestStage(kind)
	if err != nil {
		return err
	}
	projects, err := Select(r.Manifest, pattern)
	if err != nil {
		return err
	}
	runID := r.beginRun(ctx, "test", projects)
	err = r.testProjects(ctx, runID, projects, stage)
	r.finishRun(ctx, runID, err)
	return err
}

func (r *Runner) testProjects(ctx context.Context, runID string, projects []*manifest.Project, stage string) error {
	for _, p := range projects {
		if !r.Layout.SourceExists(p.Name) {
			r.logger().Info("project sources not present, skipping",
				zap.String("project", p.Name))
			continue
		}
		command := p.CommandFor(stage)
		if command == "" {
			r.logger().Debug("test kind not declared",
				zap.String("project", p.Name), zap.String("stage", stage))
			continue
		}
		pe := r.Env.Project(p.Name)
		if pe == nil {
			return fmt.Errorf("no composed environment for project %s", p.Name)
		}
		if err := r.Layout.EnsureProjectDirs(p.Name, r.Context); err != nil {
			return err
		}
		if err := r.runStage(ctx, runID, p.Name, stage, command, pe.BuildDir, pe.Env); err != nil {
			return err
		}
	}
	return nil
}

// Clone runs the clone command of every matched project whose sources are
// missing. Commands run in the workdir root under the process environment.
func (r *Runner) Clone(ctx context.Context, pattern string) error {
	projects, err := Select(r.Manifest, pattern)
	if err != nil {
		return err
	}
	runID := r.beginRun(ctx, "clone", projects)
	err = func() error {
		for _, p := range projects {
			if r.Layout.SourceExists(p.Name) {
				r.logger().Info("sources already present",
					zap.String("project", p.Name))
				continue
			}
			if p.Clone == "" {
				r.logger().Warn("no clone command declared",
					zap.String("project", p.Name))
				continue
			}
			if err := r.runStage(ctx, runID, p.Name, StageClone, p.Clone, r.Layout.Root, nil); err != nil {
				return err
			}
		}
		return nil
	}()
	r.finishRun(ctx, runID, err)
	return err
}

// Deps runs the dependency-install pipeline: the stack's builddeps
// resolution followed by each matched project's, joined with && into a
// single shell invocation in the workdir root.
func (r *Runner) Deps(ctx context.Context, pattern string, includeStack bool) error {
	projects, err := Select(r.Manifest, pattern)
	if err != nil {
		return err
	}
	command := r.depsPipeline(projects, includeStack)
	if command == "" {
		r.logger().Info("no build dependencies declared for target",
			zap.String("target", r.Target.String()))
		return nil
	}
	runID := r.beginRun(ctx, "deps", projects)
	err = r.runStage(ctx, runID, r.Manifest.Stack.Name, StageDeps, command, r.Layout.Root, nil)
	r.finishRun(ctx, runID, err)
	return err
}

// DepsCommand returns the pipeline Deps would execute, without running it.
func (r *Runner) DepsCommand(pattern string, includeStack bool) (string, error) {
	projects, err := Select(r.Manifest, pattern)
	if err != nil {
		return "", err
	}
	return r.depsPipeline(projects, includeStack), nil
}

func (r *Runner) depsPipeline(projects []*manifest.Project, includeStack bool) string {
	return DepsPipeline(r.Manifest.Stack, projects, r.Target, includeStack)
}

// DepsPipeline concatenates builddeps resolutions for the given target:
// the stack's first, then each project's, in order. Absent resolutions
// contribute nothing; "" means nothing to install.
func DepsPipeline(stack manifest.Stack, projects []*manifest.Project, target distro.Target, includeStack bool) string {
	var parts []string
	if includeStack {
		if cmd, ok := distro.Resolve(stack.BuildDeps, target); ok {
			parts = append(parts, cmd)
		}
	}
	for _, p := range projects {
		if cmd, ok := distro.Resolve(p.BuildDeps, target); ok {
			parts = append(parts, cmd)
		}
	}
	return strings.Join(parts, " && ")
}

// runStage executes one shell command with the process environment overlaid
// by the snapshot pairs. Output streams through unmodified.
func (r *Runner) runStage(ctx context.Context, runID, project, stage, command, dir string, snap compose.Snapshot) error {
	ui.StageBanner(r.out(), stage, project, r.Context)
	r.logger().Debug("running stage",
		zap.String("project", project),
		zap.String("stage", stage),
		zap.String("dir", dir),
		zap.String("command", command))

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	env := append([]string(nil), os.Environ()...)
	cmd.Env = append(env, snap.Environ()...)
	cmd.Stdin = r.In
	cmd.Stdout = r.out()
	cmd.Stderr = r.errOut()

	started := time.Now()
	runErr := cmd.Run()
	duration := time.Since(started)

	rec := history.StageRecord{
		Project:   project,
		Stage:     stage,
		Status:    "ok",
		StartedAt: started.UTC(),
		Duration:  duration,
	}
	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		rec.Status = "failed"
		rec.ExitCode = exitCode
		rec.Error = runErr.Error()
		r.recordStage(ctx, runID, rec)
		return &StageError{Project: project, Stage: stage, Command: command, ExitCode: exitCode, Err: runErr}
	}
	r.recordStage(ctx, runID, rec)
	r.logger().Debug("stage finished",
		zap.String("project", project),
		zap.String("stage", stage),
		zap.Duration("duration", duration))
	return nil
}

// History recording is best effort: failures are logged and swallowed.

func (r *Runner) beginRun(ctx context.Context, command string, projects []*manifest.Project) string {
	if r.History == nil {
		return ""
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	run := history.Run{
		ID:       history.NewRunID(command),
		Root:     r.Layout.Root,
		Stack:    r.Manifest.Stack.Name,
		Command:  command,
		Context:  r.Context,
		Projects: names,
	}
	if err := r.History.BeginRun(ctx, run); err != nil {
		r.logger().Warn("history: begin run failed", zap.Error(err))
		return ""
	}
	return run.ID
}

func (r *Runner) recordStage(ctx context.Context, runID string, rec history.StageRecord) {
	if r.History == nil || runID == "" {
		return
	}
	if err := r.History.RecordStage(ctx, runID, rec); err != nil {
		r.logger().Warn("history: record stage failed", zap.Error(err))
	}
}

func (r *Runner) finishRun(ctx context.Context, runID string, runErr error) {
	if r.History == nil || runID == "" {
		return
	}
	status := "ok"
	if runErr != nil {
		status = "failed"
	}
	if err := r.History.FinishRun(ctx, runID, status); err != nil {
		r.logger().Warn("history: finish run failed", zap.Error(err))
	}
}
