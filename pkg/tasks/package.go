package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// packageModule publishes the built module into a transient local repository
// to obtain the .nupkg and moves the result into the output directory. The
// repository is registered per invocation under a unique name and always
// unregistered again, even when the publish step fails, so it never leaks
// across builds.
func (b *BuildContext) packageModule(ctx context.Context) (err error) {
	logger := zerolog.Ctx(ctx)

	feedName := "psbuild-" + nanoid.New()
	feedDir := filepath.Join(b.OutDir(), "feed")

	if !b.DryRun {
		err = os.MkdirAll(feedDir, os.FileMode(0770))
		if err != nil {
			return eris.Wrapf(err, "failed to create the local feed directory %s", feedDir)
		}
	}

	err = b.run(ctx, "", b.pwsh(), "-NoProfile", "-Command",
		fmt.Sprintf("Register-PSRepository -Name '%s' -SourceLocation '%s' -InstallationPolicy Trusted", feedName, feedDir),
	)
	if err != nil {
		return eris.Wrap(err, "failed to register the local package feed")
	}

	defer func() {
		unregErr := b.run(ctx, "", b.pwsh(), "-NoProfile", "-Command",
			fmt.Sprintf("Unregister-PSRepository -Name '%s'", feedName),
		)
		if unregErr != nil {
			logger.Warn().Err(unregErr).Str("feed", feedName).Msg("failed to unregister the local package feed")
		}
	}()

	err = b.run(ctx, "", b.pwsh(), "-NoProfile", "-Command",
		fmt.Sprintf("Publish-Module -Path '%s' -Repository '%s' -NuGetApiKey 'local'", b.ModuleOutDir(), feedName),
	)
	if err != nil {
		return eris.Wrap(err, "failed to publish the module to the local feed")
	}

	if b.DryRun {
		return nil
	}

	packagePath := filepath.Join(feedDir, b.PackageFileName())
	_, err = os.Stat(packagePath)
	if err != nil {
		return eris.Wrapf(err, "the publish step didn't produce %s", packagePath)
	}

	finalPath := filepath.Join(b.OutDir(), b.PackageFileName())
	err = os.Rename(packagePath, finalPath)
	if err != nil {
		return eris.Wrapf(err, "failed to move the package to %s", finalPath)
	}

	logger.Info().Str("package", finalPath).Msg("packaged")
	return nil
}
