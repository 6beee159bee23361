// File: cmd/dbox/container_exec.go
// Brief: Re-invoking pipeline commands inside a stack image.

package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/dbox/internal/container"
	"github.com/example/dbox/internal/distro"
)

// innerArgs rebuilds the argument vector a container-side dbox invocation
// needs: the subcommand, its surviving flags, and an explicit --root so the
// container process never has to walk the tree up. The --base flag itself
// must not travel, and neither does --distro: inside the container the
// identity comes from the baked-in environment.
func innerArgs(subcommand string, pattern string, root string, flags [][2]string) []string {
	args := []string{container.SelfPath, subcommand}
	if pattern != "" {
		args = append(args, pattern)
	}
	for _, f := range flags {
		args = append(args, "--"+f[0], f[1])
	}
	args = append(args, "--root", root)
	return args
}

// underRoot reports whether path sits at or below root. A plain prefix
// check would also match sibling directories sharing the root's name.
func underRoot(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}

// runInContainer executes argv inside the stack image for the given base,
// with the working tree mounted at its host path and the current dbox
// binary exposed read-only.
func runInContainer(ctx context.Context, cmd *cobra.Command, ws *workspace, opts *rootOptions, base distro.Target, argv []string, interactive bool) error {
	image, err := ws.imageName(base)
	if err != nil {
		return err
	}
	eng, err := ws.engine(cmd)
	if err != nil {
		return err
	}
	self, err := container.SelfMount()
	if err != nil {
		return err
	}
	workdir := ws.Layout.Root
	if cwd, err := os.Getwd(); err == nil && underRoot(cwd, ws.Layout.Root) {
		workdir = cwd
	}
	var env []string
	if level := strings.TrimSpace(opts.logLevel); level != "" && level != "info" {
		env = append(env, "DBOX_LOG_LEVEL="+level)
	}
	return eng.Run(ctx, container.RunOptions{
		Image:   image,
		Workdir: workdir,
		Mounts: []container.Mount{
			{HostPath: ws.Layout.Root, ContainerPath: ws.Layout.Root},
			self,
		},
		Env:         env,
		Interactive: interactive,
		Command:     argv,
	})
}
