package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/psmodkit/build-tools/pkg"
)

// ErrInstallFailed indicates that the install script could not be downloaded
// or did not leave a matching SDK behind.
var ErrInstallFailed = eris.New("SDK install failed")

const installScriptURL = "https://dot.net/v1/dotnet-install.%s"

// Channel derives the release channel ("6.0") from a full SDK version
// ("6.0.100").
func Channel(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}

	return parts[0] + "." + parts[1]
}

// Install provisions the required SDK into the local user directory using the
// official install script. It's a no-op when Resolve already succeeds. The
// downloaded script is deleted on every exit path and the install is only
// considered done once a re-resolve confirms the SDK is present.
func (r *Resolver) Install(ctx context.Context, channel, version string) error {
	logger := zerolog.Ctx(ctx)

	_, err := r.Resolve(ctx, version)
	if err == nil {
		logger.Info().Msgf("SDK %s is already installed, skipping install", version)
		return nil
	}

	if !eris.Is(err, ErrNotFound) {
		return err
	}

	ext := "sh"
	if runtime.GOOS == "windows" {
		ext = "ps1"
	}

	scriptPath := filepath.Join(os.TempDir(), fmt.Sprintf("dotnet-install-%s.%s", nanoid.New(), ext))
	err = pkg.DownloadFile(ctx, fmt.Sprintf(installScriptURL, ext), scriptPath, "")
	if err != nil {
		return eris.Wrapf(ErrInstallFailed, "failed to download the install script: %v", err)
	}
	defer os.Remove(scriptPath)

	logger.Info().Msgf("installing SDK %s (channel %s) into %s", version, channel, r.LocalDir)
	if runtime.GOOS == "windows" {
		err = r.runWindowsInstaller(ctx, scriptPath, channel, version)
	} else {
		err = r.runPosixInstaller(ctx, scriptPath, channel, version)
	}
	if err != nil {
		return eris.Wrapf(ErrInstallFailed, "install script failed: %v", err)
	}

	_, err = r.Resolve(ctx, version)
	if err != nil {
		return eris.Wrapf(ErrInstallFailed, "SDK %s is still missing after the install script ran", version)
	}

	return nil
}

func (r *Resolver) runWindowsInstaller(ctx context.Context, scriptPath, channel, version string) error {
	cmd := exec.CommandContext(ctx, "pwsh", "-NoProfile", "-ExecutionPolicy", "Bypass",
		"-File", scriptPath,
		"-Channel", channel,
		"-Version", version,
		"-InstallDir", r.LocalDir,
	)
	cmd.Env = r.Search.Environ()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// runPosixInstaller executes the downloaded shell script through the embedded
// shell runtime so the install behaves the same regardless of which /bin/sh
// the host happens to ship.
func (r *Resolver) runPosixInstaller(ctx context.Context, scriptPath, channel, version string) error {
	handle, err := os.Open(scriptPath)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", scriptPath)
	}
	defer handle.Close()

	parser := syntax.NewParser()
	script, err := parser.Parse(handle, filepath.Base(scriptPath))
	if err != nil {
		return eris.Wrapf(err, "failed to parse %s", scriptPath)
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(r.Search.Environ()...)),
		interp.StdIO(nil, os.Stdout, os.Stderr),
		interp.Params("--", "--channel", channel, "--version", version, "--install-dir", r.LocalDir),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize the shell runtime")
	}

	return runner.Run(ctx, script)
}
