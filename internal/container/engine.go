// File: internal/container/engine.go
// Brief: Podman adapter. Builds stack images from rendered Containerfiles,
//        lists locally stored stack images, and runs commands inside
//        containers with the workspace mounted at its host path.

package container

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/example/dbox/internal/distro"
)

// Engine invokes the podman binary. The zero value uses "podman" from PATH
// and the process's standard streams.
type Engine struct {
	Binary    string
	ExtraArgs []string

	Log    *zap.Logger
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

func (e *Engine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "podman"
}

func (e *Engine) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop()
}

func (e *Engine) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return os.Stdout
}

func (e *Engine) errOut() io.Writer {
	if e.ErrOut != nil {
		return e.ErrOut
	}
	return os.Stderr
}

// command assembles a podman invocation. ExtraArgs are global podman flags
// and go before the subcommand.
func (e *Engine) command(ctx context.Context, args ...string) *exec.Cmd {
	argv := append(append([]string(nil), e.ExtraArgs...), args...)
	cmd := exec.CommandContext(ctx, e.binary(), argv...)
	cmd.Stdin = e.In
	cmd.Stdout = e.out()
	cmd.Stderr = e.errOut()
	return cmd
}

// BuildOptions parameterize one podman build.
type BuildOptions struct {
	Name          string
	Containerfile string
	Platform      string
}

// BuildImage writes the Containerfile into a scratch context directory and
// runs podman build over it, streaming build output.
func (e *Engine) BuildImage(ctx context.Context, opts BuildOptions) error {
	if opts.Name == "" {
		return errors.New("image name is empty")
	}
	dir, err := os.MkdirTemp("", "dbox-image-")
	if err != nil {
		return errors.Wrap(err, "failed to create build context")
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "Containerfile")
	if err := os.WriteFile(file, []byte(opts.Containerfile), 0o644); err != nil {
		return errors.Wrap(err, "failed to write Containerfile")
	}
	args := []string{"build", "--tag", opts.Name, "--file", file}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	args = append(args, dir)
	e.logger().Debug("running podman build",
		zap.String("image", opts.Name),
		zap.Strings("args", args))
	if err := e.command(ctx, args...).Run(); err != nil {
		return errors.Wrapf(err, "failed to build image %s", opts.Name)
	}
	return nil
}

// Image is one locally stored stack image.
type Image struct {
	ID      string
	Name    string
	Stack   string
	Base    distro.Target
	Created time.Time
	Size    int64
}

// ListImages returns the stack images known to podman, sorted by name.
// Images whose tags do not follow the stack naming convention are skipped.
func (e *Engine) ListImages(ctx context.Context) ([]Image, error) {
	argv := append(append([]string(nil), e.ExtraArgs...), "images", "--format", "json")
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary(), argv...)
	cmd.Stdout = &buf
	cmd.Stderr = e.errOut()
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to list images")
	}
	return parseImagesJSON(buf.Bytes())
}

type podmanImage struct {
	ID      string   `json:"Id"`
	Names   []string `json:"Names"`
	Created int64    `json:"Created"`
	Size    int64    `json:"Size"`
}

func parseImagesJSON(raw []byte) ([]Image, error) {
	var rows []podmanImage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to parse podman images output")
	}
	var out []Image
	for _, row := range rows {
		for _, name := range row.Names {
			stack, base, ok := ParseImageName(name)
			if !ok {
				continue
			}
			out = append(out, Image{
				ID:      ShortID(row.ID),
				Name:    name,
				Stack:   stack,
				Base:    base,
				Created: time.Unix(row.Created, 0).UTC(),
				Size:    row.Size,
			})
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Mount binds a host path into the container.
type Mount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// RunOptions parameterize one podman run.
type RunOptions struct {
	Image       string
	Workdir     string
	Mounts      []Mount
	Env         []string
	Interactive bool
	Command     []string
}

// runArgs assembles the argument vector for podman run. Containers are
// always removed on exit and run with the caller's UID mapped through.
func runArgs(opts RunOptions) []string {
	args := []string{"run", "--rm", "--userns=keep-id"}
	if opts.Interactive {
		args = append(args, "--interactive", "--tty")
	}
	for _, m := range opts.Mounts {
		spec := m.HostPath + ":" + m.ContainerPath
		if m.ReadOnly {
			spec += ":ro"
		}
		args = append(args, "--volume", spec)
	}
	for _, kv := range opts.Env {
		args = append(args, "--env", kv)
	}
	if opts.Workdir != "" {
		args = append(args, "--workdir", opts.Workdir)
	}
	args = append(args, opts.Image)
	args = append(args, opts.Command...)
	return args
}

// Run executes a command inside a container. The returned error keeps the
// process exit status in its chain.
func (e *Engine) Run(ctx context.Context, opts RunOptions) error {
	if opts.Image == "" {
		return errors.New("image name is empty")
	}
	args := runArgs(opts)
	e.logger().Debug("running podman run",
		zap.String("image", opts.Image),
		zap.Strings("command", opts.Command))
	cmd := e.command(ctx, args...)
	if opts.Interactive && cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "failed to run command in %s", opts.Image)
	}
	return nil
}

// SelfMount exposes the running dbox binary inside a container so pipeline
// commands can re-invoke it there.
func SelfMount() (Mount, error) {
	exe, err := os.Executable()
	if err != nil {
		return Mount{}, errors.Wrap(err, "failed to locate the dbox binary")
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return Mount{}, errors.Wrap(err, "failed to resolve the dbox binary path")
	}
	return Mount{HostPath: resolved, ContainerPath: SelfPath, ReadOnly: true}, nil
}
