package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psmodkit/build-tools/pkg"
	"github.com/psmodkit/build-tools/pkg/manifest"
	"github.com/psmodkit/build-tools/pkg/toolchain"
)

var installSdkCmd = &cobra.Command{
	Use:   "install-sdk",
	Short: "Installs the pinned .NET SDK if it's missing",
	Long: `Checks the search path and the local user install directory for the SDK
version pinned in global.json and runs the official install script when
neither has it. Does nothing when the SDK is already present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newRunContext()

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		sdkManifest, err := manifest.LoadSDK(filepath.Join(root, sdkManifestName))
		if err != nil {
			return err
		}

		version := sdkManifest.SDK.Version
		pkg.PrintTask("Ensuring .NET SDK " + version)

		resolver := toolchain.NewResolver(toolchain.NewSearchPath())
		return resolver.Install(ctx, toolchain.Channel(version), version)
	},
}

func init() {
	rootCmd.AddCommand(installSdkCmd)
}
