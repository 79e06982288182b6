package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psmodkit/build-tools/pkg"
	"github.com/psmodkit/build-tools/pkg/manifest"
)

var fetchDepsCmd = &cobra.Command{
	Use:   "fetch-deps",
	Short: "Downloads and unpacks the build-time dependencies",
	Long:  `Downloads and unpacks the dependencies listed in PSDEPS.yml without running any build task.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		ctx := newRunContext()

		pkg.PrintTask("Loading manifest")
		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		depsManifest, err := manifest.LoadDeps(filepath.Join(root, depsManifestName))
		if err != nil {
			return err
		}

		pkg.PrintTask("Downloading dependencies")
		err = pkg.FetchDeps(ctx, root, depsManifest, force)
		if err != nil {
			return err
		}

		pkg.PrintTask("Done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchDepsCmd)
	fetchDepsCmd.Flags().BoolP("force", "f", false, "re-fetch dependencies even if they're already present")
}
