// main.go bootstraps dbox: it builds the root Cobra command, wires viper
// backfill, and executes with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/dbox/internal/compose"
	"github.com/example/dbox/internal/config"
	"github.com/example/dbox/internal/manifest"
	"github.com/example/dbox/internal/pipeline"
	"github.com/example/dbox/internal/workdir"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{logLevel: "info"}
	cmd := &cobra.Command{
		Use:   "dbox",
		Short: "Build software stacks from source checkouts in layered environments",
		Long: `dbox builds multi-project software stacks straight from source checkouts.
It composes an environment that layers every project's install directory,
runs the build pipeline on the host or inside unprivileged Podman
containers, and keeps per-distro build trees apart.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level for dbox output (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.root, "root", "", "Working directory root (default: nearest parent containing .dbox)")
	cmd.PersistentFlags().StringVar(&opts.distro, "distro", "", "Target distro identity as NAME:VERSION (default: detected)")

	subs := []*cobra.Command{
		newInitCommand(opts),
		newFetchCommand(opts),
		newUpdateCommand(opts),
		newStatusCommand(opts),
		newCloneCommand(opts),
		newDepsCommand(opts),
		newBuildCommand(opts),
		newTestCommand(opts),
		newEnvCommand(opts),
		newImageCommand(opts),
		newRunCommand(opts),
		newRunsCommand(opts),
		newDocsCommand(),
		newVersionCommand(),
	}
	cmd.AddCommand(subs...)
	cmd.AddCommand(newCompletionCommand(cmd))
	cmd.Example = `  # Fetch a stack manifest and initialize a working directory
  dbox fetch https://example.com/stacks/gluster.yaml
  dbox init gluster ~/work/gluster

  # Clone sources, install build dependencies, build everything
  dbox clone && dbox deps && dbox build

  # Build inside the fedora:42 stack image instead of on the host
  dbox image build --base fedora:42
  dbox build --base fedora:42`
	decorateCommandHelp(cmd, "Global Flags")
	bindViper(append([]*cobra.Command{cmd}, subs...)...)
	return cmd
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("DBOX")
	v.AutomaticEnv()
	configFile := os.Getenv(config.EnvConfigFile)
	configureConfigFile(v, configFile)

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
			if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		if err := readConfigFile(v, configFile != ""); err != nil {
			cobra.CheckErr(err)
		}
		for _, cmd := range commands {
			for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Changed {
						return
					}
					if !v.IsSet(f.Name) {
						return
					}
					val := fmt.Sprintf("%v", v.Get(f.Name))
					if val != "" {
						_ = f.Value.Set(val)
					}
				})
			}
		}
	})
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	for _, dir := range config.SearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !explicit && (errors.As(err, &notFound) || os.IsNotExist(err)) {
		return nil
	}
	return fmt.Errorf("read config file: %w", err)
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
}

// errorMessage attaches a recovery hint to the error kinds a user can act
// on directly.
func errorMessage(err error) string {
	message := err.Error()
	var notFound *manifest.NotFoundError
	var gap *compose.GapError
	switch {
	case errors.Is(err, workdir.ErrNotFound):
		message = fmt.Sprintf("%s\nHint: run 'dbox init STACK DIR' to set up a working directory, or pass --root.", err)
	case errors.As(err, &notFound) && notFound.Kind == "stack":
		message = fmt.Sprintf("%s\nHint: run 'dbox fetch URL' to download the stack manifest first.", err)
	case errors.As(err, &gap):
		message = fmt.Sprintf("%s\nHint: fix the paths template in the manifest or override the variable in your config.", err)
	case errors.Is(err, exec.ErrNotFound):
		message = fmt.Sprintf("%s\nHint: install podman or point the 'podman' config key at the binary to use.", err)
	}
	return message
}

func exitCode(err error) int {
	var stage *pipeline.StageError
	if errors.As(err, &stage) && stage.ExitCode > 0 {
		return stage.ExitCode
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) && exit.ExitCode() > 0 {
		return exit.ExitCode()
	}
	return 1
}
