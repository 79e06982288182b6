package tasks

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/psmodkit/build-tools/pkg"
)

// clean removes the configuration's output directory if it exists. Running it
// on a clean tree is a no-op.
func (b *BuildContext) clean(ctx context.Context) error {
	outDir := b.OutDir()
	_, err := os.Stat(outDir)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Debug().Str("dir", outDir).Msg("output directory doesn't exist, nothing to clean")
			return nil
		}

		return eris.Wrapf(err, "failed to check %s", outDir)
	}

	if b.DryRun {
		zerolog.Ctx(ctx).Info().Str("dir", outDir).Msg("would remove")
		return nil
	}

	err = os.RemoveAll(outDir)
	if err != nil {
		return eris.Wrapf(err, "failed to remove %s", outDir)
	}

	return nil
}

func (b *BuildContext) restore(ctx context.Context) error {
	return b.run(ctx, b.sourceDir(), b.Toolchain.DotnetPath, "restore")
}

// publish compiles the source project into the versioned module output
// directory. The build tool runs from inside the source tree; the working
// directory is restored afterwards even when the build fails.
func (b *BuildContext) publish(ctx context.Context) error {
	return pkg.InDir(b.sourceDir(), func() error {
		return b.run(ctx, "", b.Toolchain.DotnetPath, "publish",
			"--configuration", b.Configuration,
			"--output", b.ModuleOutDir(),
		)
	})
}
