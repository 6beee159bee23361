// File: cmd/dbox/workspace.go
// Brief: Shared command plumbing: config, logger, working tree, manifest,
//        and target identity assembled once per invocation.

package main

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/dbox/internal/compose"
	"github.com/example/dbox/internal/config"
	"github.com/example/dbox/internal/container"
	"github.com/example/dbox/internal/distro"
	"github.com/example/dbox/internal/history"
	"github.com/example/dbox/internal/logging"
	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/pipeline"
	"github.com/example/dbox/internal/workdir"
	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags every subcommand sees.
type rootOptions struct {
	logLevel string
	root     string
	distro   string
}

// workspace is everything a working-tree command needs: the parsed stack
// manifest, the directory layout, the resolved target identity, and the
// build context the current process runs in.
type workspace struct {
	Config   *config.Config
	Layout   workdir.Layout
	Manifest *manifest.Manifest
	Target   distro.Target
	Context  string
	Log      *zap.Logger
}

// newLogger builds the zap logger for one invocation.
func newLogger(opts *rootOptions) (*zap.Logger, error) {
	return logging.New(opts.logLevel)
}

// openWorkspace locates the working tree (--root or a walk up from the
// current directory), loads its stack manifest, and resolves the target
// distro identity.
func openWorkspace(opts *rootOptions) (*workspace, error) {
	log, err := newLogger(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	root := strings.TrimSpace(opts.root)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root, err = workdir.FindRoot(cwd)
		if err != nil {
			return nil, err
		}
	} else {
		root, err = filepath.Abs(root)
		if err != nil {
			return nil, err
		}
	}
	layout, err := workdir.NewLayout(root)
	if err != nil {
		return nil, err
	}
	m, err := manifest.LoadFile(layout.StackManifest())
	if err != nil {
		return nil, err
	}
	target, err := distro.Detect(opts.distro)
	if err != nil {
		return nil, err
	}
	ambient, inContainer := distro.InContainer()
	buildContext := workdir.ContextSubdir(ambient, inContainer)
	log.Debug("workspace ready",
		zap.String("root", layout.Root),
		zap.String("stack", m.Stack.Name),
		zap.String("target", target.String()),
		zap.String("context", buildContext))
	return &workspace{
		Config:   cfg,
		Layout:   layout,
		Manifest: m,
		Target:   target,
		Context:  buildContext,
		Log:      log,
	}, nil
}

// composeEnv runs the environment fold for this workspace.
func (ws *workspace) composeEnv() (*compose.Result, error) {
	return compose.Compose(compose.Inputs{
		Manifest:  ws.Manifest,
		Layout:    ws.Layout,
		Subdir:    ws.Context,
		Libdir:    distro.Libdir(ws.Target),
		Environ:   os.Environ(),
		Overrides: ws.Config.Env,
	})
}

// runner assembles a pipeline runner wired to the command's streams. The
// history store is best-effort: when it cannot be opened the run proceeds
// unrecorded. Callers that execute build or test stages must attach a
// composed environment first.
func (ws *workspace) runner(cmd *cobra.Command) (*pipeline.Runner, func()) {
	r := &pipeline.Runner{
		Manifest: ws.Manifest,
		Layout:   ws.Layout,
		Target:   ws.Target,
		Context:  ws.Context,
		Log:      ws.Log,
		In:       cmd.InOrStdin(),
		Out:      cmd.OutOrStdout(),
		ErrOut:   cmd.ErrOrStderr(),
	}
	cleanup := func() {}
	if store, err := history.Open(ws.Layout.HistoryDB()); err != nil {
		ws.Log.Warn("run history disabled", zap.Error(err))
	} else {
		r.History = store
		cleanup = func() { _ = store.Close() }
	}
	return r, cleanup
}

// engine assembles the podman adapter from the user configuration.
func (ws *workspace) engine(cmd *cobra.Command) (*container.Engine, error) {
	return newEngine(ws.Config, ws.Log, cmd)
}

// openEngine builds a podman adapter without requiring a working tree, for
// commands that only talk to the image store.
func openEngine(cmd *cobra.Command, opts *rootOptions) (*container.Engine, error) {
	log, err := newLogger(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, log, cmd)
}

func newEngine(cfg *config.Config, log *zap.Logger, cmd *cobra.Command) (*container.Engine, error) {
	extra, err := cfg.ExtraPodmanArgs()
	if err != nil {
		return nil, err
	}
	return &container.Engine{
		Binary:    cfg.Podman,
		ExtraArgs: extra,
		Log:       log,
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
		ErrOut:    cmd.ErrOrStderr(),
	}, nil
}

// imageName names the stack image for the given base.
func (ws *workspace) imageName(base distro.Target) (string, error) {
	return container.ImageName(ws.Config.HostPrefix, ws.Manifest.Stack.Name, base)
}
