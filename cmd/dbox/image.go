package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/dbox/internal/container"
	"github.com/example/dbox/internal/distro"
	"github.com/example/dbox/internal/pipeline"
)

func newImageCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Build and inspect stack container images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newImageBuildCommand(opts), newImageListCommand(opts))
	decorateCommandHelp(cmd, "Image Flags")
	return cmd
}

func newImageBuildCommand(opts *rootOptions) *cobra.Command {
	var base string
	var platform string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the stack image for a base distro",
		Long: `Generate a Containerfile for the stack (base layer, distro_setup layer,
builddeps layer for every project, OCI annotations) and build it with
podman under the stack's image tag. Builddeps resolve against the base,
not against the host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(opts)
			if err != nil {
				return err
			}
			target, err := distro.Parse(base)
			if err != nil {
				return err
			}
			name, err := ws.imageName(target)
			if err != nil {
				return err
			}
			projects, err := pipeline.Select(ws.Manifest, "")
			if err != nil {
				return err
			}
			setupCmd, _ := distro.Resolve(ws.Manifest.Stack.DistroSetup, target)
			spec := container.ImageSpec{
				Name:     name,
				Stack:    ws.Manifest.Stack.Name,
				Base:     target,
				SetupCmd: setupCmd,
				DepsCmd:  pipeline.DepsPipeline(ws.Manifest.Stack, projects, target, true),
			}
			eng, err := ws.engine(cmd)
			if err != nil {
				return err
			}
			ws.Log.Info("building stack image",
				zap.String("image", name),
				zap.String("base", target.String()))
			if err := eng.BuildImage(cmd.Context(), container.BuildOptions{
				Name:          name,
				Containerfile: container.RenderContainerfile(spec),
				Platform:      platform,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built image %s\n", name)
			return nil
		},
	}
	cmd.Flags().Var(newBaseValue(&base), "base", "Base image identity (NAME:VERSION)")
	cmd.Flags().Var(newPlatformValue(&platform), "platform", "Target platform for the build (os/arch)")
	if err := cmd.MarkFlagRequired("base"); err != nil {
		cobra.CheckErr(err)
	}
	decorateCommandHelp(cmd, "Image Build Flags")
	return cmd
}

func newImageListCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List locally stored stack images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine(cmd, opts)
			if err != nil {
				return err
			}
			images, err := eng.ListImages(cmd.Context())
			if err != nil {
				return err
			}
			if len(images) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stack images found. Build one with 'dbox image build --base NAME:VERSION'.")
				return nil
			}
			return container.PrintImagesTable(cmd.OutOrStdout(), images)
		},
	}
	decorateCommandHelp(cmd, "Image List Flags")
	return cmd
}
