// Package tasks defines the built-in build pipeline for the PowerShell
// module: the leaf tasks that shell out to dotnet and pwsh, and the composite
// tasks that order them.
package tasks

import (
	"context"
	"path/filepath"

	"github.com/psmodkit/build-tools/pkg/manifest"
	"github.com/psmodkit/build-tools/pkg/taskgraph"
	"github.com/psmodkit/build-tools/pkg/toolchain"
)

// BuildContext carries everything the task bodies need. It's assembled once
// per invocation and read-only afterwards.
type BuildContext struct {
	ProjectRoot   string
	Configuration string
	TagFilter     []string
	Module        manifest.Module
	Toolchain     *toolchain.Handle
	Exec          ExecFunc
	DryRun        bool
}

// OutDir is the root of everything the build produces.
func (b *BuildContext) OutDir() string {
	return filepath.Join(b.ProjectRoot, "out", b.Configuration)
}

// ModuleOutDir is the versioned module output directory below OutDir.
func (b *BuildContext) ModuleOutDir() string {
	return filepath.Join(b.OutDir(), b.Module.Name, b.Module.Version)
}

// TestResultsDir holds the structured test report.
func (b *BuildContext) TestResultsDir() string {
	return filepath.Join(b.OutDir(), "TestResults")
}

// PackageFileName is <module>.<version>[-<prerelease>].nupkg.
func (b *BuildContext) PackageFileName() string {
	version := b.Module.Version
	if b.Module.Prerelease != "" {
		version += "-" + b.Module.Prerelease
	}

	return b.Module.Name + "." + version + ".nupkg"
}

func (b *BuildContext) sourceDir() string {
	return filepath.Join(b.ProjectRoot, b.Module.SourceDir)
}

func (b *BuildContext) testDir() string {
	return filepath.Join(b.ProjectRoot, b.Module.TestDir)
}

func (b *BuildContext) docsDir() string {
	return filepath.Join(b.ProjectRoot, b.Module.DocsDir)
}

// pwsh resolves the PowerShell host against the resolved search path,
// falling back to plain name lookup by the OS.
func (b *BuildContext) pwsh() string {
	exe, err := b.Toolchain.Search.LookPath("pwsh")
	if err != nil {
		return "pwsh"
	}

	return exe
}

// Register defines the built-in tasks. The composite orders are contract:
// Build is Restore, Clean, Publish, ExternalHelp, Package; Test is Publish,
// BuildTestProjects, RunPesterTests; TestPackage skips Publish.
func Register(ctx context.Context, reg *taskgraph.Registry, b *BuildContext) {
	reg.Define(ctx, taskgraph.Task{
		Name:   "Clean",
		Desc:   "Removes the output directory for the current configuration",
		Action: b.clean,
	})
	reg.Define(ctx, taskgraph.Task{
		Name:   "Restore",
		Desc:   "Restores the source project's packages",
		Action: b.restore,
	})
	reg.Define(ctx, taskgraph.Task{
		Name:   "Publish",
		Desc:   "Compiles and publishes the module into the output directory",
		Action: b.publish,
	})
	reg.Define(ctx, taskgraph.Task{
		Name:   "ExternalHelp",
		Desc:   "Generates the external help (MAML) from the markdown docs",
		Action: b.externalHelp,
	})
	reg.Define(ctx, taskgraph.Task{
		Name:   "MarkdownHelp",
		Desc:   "Generates or updates the markdown help files",
		Action: b.markdownHelp,
	})
	reg.Define(ctx, taskgraph.Task{
		Name:   "BuildTestProjects",
		Desc:   "Builds the test projects",
		Action: b.buildTestProjects,
	})
	reg.Define(ctx, taskgraph.Task{
		Name:   "RunPesterTests",
		Desc:   "Runs the Pester test suite",
		Action: b.runPesterTests,
	})
	reg.Define(ctx, taskgraph.Task{
		Name:   "Package",
		Desc:   "Packages the published module into a .nupkg",
		Action: b.packageModule,
	})

	reg.Define(ctx, taskgraph.Task{
		Name: "Build",
		Desc: "Builds, documents and packages the module",
		Deps: []string{"Restore", "Clean", "Publish", "ExternalHelp", "Package"},
	})
	reg.Define(ctx, taskgraph.Task{
		Name: "Test",
		Desc: "Publishes the module and runs the test suite against it",
		Deps: []string{"Publish", "BuildTestProjects", "RunPesterTests"},
	})
	reg.Define(ctx, taskgraph.Task{
		Name: "TestPackage",
		Desc: "Runs the test suite against an already published module",
		Deps: []string{"BuildTestProjects", "RunPesterTests"},
	})
	reg.Define(ctx, taskgraph.Task{
		Name: "Docs",
		Desc: "Regenerates the markdown help",
		Deps: []string{"MarkdownHelp"},
	})
}

// RegisterHooks turns the manifest's hook entries into tasks. A hook may
// shadow a built-in name; the registry's last-wins semantics apply.
func RegisterHooks(ctx context.Context, reg *taskgraph.Registry, b *BuildContext, hooks []manifest.Hook) {
	for _, hook := range hooks {
		reg.Define(ctx, taskgraph.ScriptTask(hook.Name, hook.Desc, hook.Deps, hook.Run, taskgraph.ScriptOptions{
			Dir:    b.ProjectRoot,
			Env:    b.Toolchain.Search.Environ(),
			DryRun: b.DryRun,
		}))
	}
}
