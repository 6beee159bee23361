// File: internal/workdir/workdir.go
// Brief: Working-directory discovery and the .dbox on-disk layout.

package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/dbox/internal/distro"
)

// MarkerDirName is the hidden directory that marks an initialized working
// directory and holds everything dbox writes there.
const MarkerDirName = ".dbox"

const (
	stackFileName   = "stack.yaml"
	historyFileName = "history.sqlite"
	buildDirName    = "build"
	installDirName  = "install"
)

// ErrNotFound reports that no initialized working directory was found above
// the starting path.
var ErrNotFound = errors.New("no " + MarkerDirName + " directory found")

// FindRoot walks up from start until it reaches a directory containing
// .dbox. It is stateless and re-derives the answer on every call.
func FindRoot(start string) (string, error) {
	start = strings.TrimSpace(start)
	if start == "" {
		return "", fmt.Errorf("find root: start path is empty")
	}
	current, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("find root: %w", err)
	}
	if info, err := os.Stat(current); err == nil && !info.IsDir() {
		current = filepath.Dir(current)
	}
	for {
		if fi, err := os.Stat(filepath.Join(current, MarkerDirName)); err == nil && fi.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%w above %s", ErrNotFound, start)
		}
		current = parent
	}
}

// Layout derives every path dbox touches under one working-directory root.
// Sources live directly under the root; build and install trees live under
// .dbox, split per project and per build context. Directories are created
// when needed and never wiped.
type Layout struct {
	Root string
}

func NewLayout(root string) (Layout, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return Layout{}, fmt.Errorf("working directory root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return Layout{Root: abs}, nil
}

func (l Layout) MarkerDir() string {
	return filepath.Join(l.Root, MarkerDirName)
}

func (l Layout) StackManifest() string {
	return filepath.Join(l.MarkerDir(), stackFileName)
}

func (l Layout) HistoryDB() string {
	return filepath.Join(l.MarkerDir(), historyFileName)
}

// SourceDir is the project checkout path.
func (l Layout) SourceDir(project string) string {
	return filepath.Join(l.Root, project)
}

// BuildDir is where configure/build/install/test stages run for a project
// within one build context.
func (l Layout) BuildDir(project, context string) string {
	return filepath.Join(l.MarkerDir(), buildDirName, project, context)
}

// InstallDir is the stage-install prefix for a project within one build
// context.
func (l Layout) InstallDir(project, context string) string {
	return filepath.Join(l.MarkerDir(), installDirName, project, context)
}

// SourceExists reports whether the project checkout is present, which is
// what makes a project available to the pipeline.
func (l Layout) SourceExists(project string) bool {
	info, err := os.Stat(l.SourceDir(project))
	return err == nil && info.IsDir()
}

// EnsureProjectDirs creates the build and install directories for one
// project/context pair. Existing contents are left alone.
func (l Layout) EnsureProjectDirs(project, context string) error {
	for _, dir := range []string{l.BuildDir(project, context), l.InstallDir(project, context)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// WriteStackManifest initializes (or refreshes) the working directory's
// manifest copy.
func (l Layout) WriteStackManifest(data []byte) error {
	if err := os.MkdirAll(l.MarkerDir(), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", l.MarkerDir(), err)
	}
	if err := os.WriteFile(l.StackManifest(), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", l.StackManifest(), err)
	}
	return nil
}

// ContextSubdir names the build context directory a stage executes in:
// "host" outside a container, otherwise the active base image identity.
func ContextSubdir(t distro.Target, inContainer bool) string {
	if !inContainer || t.IsZero() {
		return "host"
	}
	if t.Version == "" {
		return t.Name
	}
	return t.Name + "-" + t.Version
}
