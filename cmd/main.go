// Package cmd implements the psbuild command line: the root command drives
// the whole pipeline (SDK resolution, dependency fetch, task execution) and
// the subcommands expose the individual stages.
package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/psmodkit/build-tools/pkg"
	"github.com/psmodkit/build-tools/pkg/manifest"
	"github.com/psmodkit/build-tools/pkg/taskgraph"
	"github.com/psmodkit/build-tools/pkg/tasks"
	"github.com/psmodkit/build-tools/pkg/toolchain"
)

const (
	sdkManifestName  = "global.json"
	depsManifestName = "PSDEPS.yml"
)

var rootCmd = &cobra.Command{
	Use:   "psbuild",
	Short: "Build orchestration for the PowerShell module",
	Long: `psbuild provisions the pinned .NET SDK, fetches the declared build-time
dependencies and runs the requested build task with all of its prerequisites.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := flagsFromCmd(cmd)
		if err != nil {
			return err
		}

		ctx := newRunContext()

		root, sdkManifest, depsManifest, err := loadManifests()
		if err != nil {
			return err
		}

		handle, err := ensureToolchain(ctx, sdkManifest.SDK.Version)
		if err != nil {
			return err
		}

		pkg.PrintTask("Fetching dependencies")
		err = pkg.FetchDeps(ctx, root, depsManifest, cfg.force)
		if err != nil {
			return err
		}

		buildCtx := &tasks.BuildContext{
			ProjectRoot:   root,
			Configuration: cfg.configuration,
			TagFilter:     cfg.tagFilter,
			Module:        depsManifest.Module,
			Toolchain:     handle,
			DryRun:        cfg.dryRun,
		}

		registry := taskgraph.NewRegistry()
		tasks.Register(ctx, registry, buildCtx)
		tasks.RegisterHooks(ctx, registry, buildCtx, depsManifest.Hooks)

		if cfg.list {
			printTaskList(registry)
			return nil
		}

		pkg.PrintTask("Running " + cfg.task)
		return registry.Run(ctx, cfg.task)
	},
}

type rootFlags struct {
	configuration string
	task          string
	tagFilter     []string
	dryRun        bool
	force         bool
	list          bool
}

func flagsFromCmd(cmd *cobra.Command) (rootFlags, error) {
	var cfg rootFlags
	var err error

	if cfg.configuration, err = cmd.Flags().GetString("configuration"); err != nil {
		return cfg, err
	}
	if cfg.configuration != "Debug" && cfg.configuration != "Release" {
		return cfg, eris.Errorf("unknown configuration %s (expected Debug or Release)", cfg.configuration)
	}

	if cfg.task, err = cmd.Flags().GetString("task"); err != nil {
		return cfg, err
	}
	if cfg.tagFilter, err = cmd.Flags().GetStringSlice("tag-filter"); err != nil {
		return cfg, err
	}
	if cfg.dryRun, err = cmd.Flags().GetBool("dry"); err != nil {
		return cfg, err
	}
	if cfg.force, err = cmd.Flags().GetBool("force"); err != nil {
		return cfg, err
	}
	if cfg.list, err = cmd.Flags().GetBool("list"); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func newRunContext() context.Context {
	logger := zerolog.New(NewConsoleWriter())
	return taskgraph.WithLogger(context.Background(), &logger)
}

func loadManifests() (string, manifest.SDKManifest, manifest.DepsManifest, error) {
	root, err := pkg.GetProjectRoot()
	if err != nil {
		return "", manifest.SDKManifest{}, manifest.DepsManifest{}, err
	}

	sdkManifest, err := manifest.LoadSDK(filepath.Join(root, sdkManifestName))
	if err != nil {
		return "", manifest.SDKManifest{}, manifest.DepsManifest{}, err
	}

	depsManifest, err := manifest.LoadDeps(filepath.Join(root, depsManifestName))
	if err != nil {
		return "", manifest.SDKManifest{}, manifest.DepsManifest{}, err
	}

	return root, sdkManifest, depsManifest, nil
}

// ensureToolchain resolves the pinned SDK, installing it into the local user
// directory when neither the search path nor the local directory has it.
func ensureToolchain(ctx context.Context, version string) (*toolchain.Handle, error) {
	pkg.PrintTask("Resolving .NET SDK " + version)

	resolver := toolchain.NewResolver(toolchain.NewSearchPath())
	handle, err := resolver.Resolve(ctx, version)
	if err == nil {
		return handle, nil
	}

	if !eris.Is(err, toolchain.ErrNotFound) {
		return nil, err
	}

	err = resolver.Install(ctx, toolchain.Channel(version), version)
	if err != nil {
		return nil, err
	}

	return resolver.Resolve(ctx, version)
}

func printTaskList(registry *taskgraph.Registry) {
	fmt.Println("Available tasks:")

	taskList := registry.Tasks()
	maxNameLen := 0
	for _, task := range taskList {
		if len(task.Name) > maxNameLen {
			maxNameLen = len(task.Name)
		}
	}

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
	for _, task := range taskList {
		fmt.Printf(lineFmt, task.Name+":", task.Desc)
	}
}

func init() {
	rootCmd.Flags().StringP("configuration", "c", "Debug", "build configuration (Debug or Release)")
	rootCmd.Flags().StringP("task", "t", "Build", "task to run (including its prerequisites)")
	rootCmd.Flags().StringSlice("tag-filter", nil, "only run tests carrying one of these tags")
	rootCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	rootCmd.Flags().BoolP("force", "f", false, "re-fetch dependencies even if they're already present")
	rootCmd.Flags().BoolP("list", "l", false, "list the available tasks and exit")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
