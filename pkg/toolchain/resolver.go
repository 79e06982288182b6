package toolchain

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ErrNotFound indicates that no install satisfies the required SDK version.
var ErrNotFound = eris.New("no matching .NET SDK found")

// Location describes where a resolved SDK came from.
type Location int

const (
	// LocationGlobal is an install that was already on the search path.
	LocationGlobal Location = iota + 1
	// LocationLocal is the per-user fallback install directory.
	LocationLocal
)

func (l Location) String() string {
	switch l {
	case LocationGlobal:
		return "global"
	case LocationLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Handle is a successfully resolved toolchain. Search already reflects any
// prepend the resolution had to perform.
type Handle struct {
	DotnetPath string
	Version    string
	Location   Location
	Search     *SearchPathContext
}

// Resolver finds a dotnet install that carries an exact SDK version.
type Resolver struct {
	Search   *SearchPathContext
	LocalDir string

	// ListSDKs reports the SDK versions an executable carries. Tests swap
	// this out; the default shells out to `dotnet --list-sdks`.
	ListSDKs func(ctx context.Context, exe string, env []string) ([]string, error)
}

// NewResolver builds a resolver around the given search path. The local
// fallback directory comes from DOTNET_INSTALL_DIR when set.
func NewResolver(search *SearchPathContext) *Resolver {
	return &Resolver{
		Search:   search,
		LocalDir: DefaultLocalDir(),
		ListSDKs: listInstalledSDKs,
	}
}

// DefaultLocalDir returns the per-user install directory for the current
// platform.
func DefaultLocalDir() string {
	if dir := os.Getenv("DOTNET_INSTALL_DIR"); dir != "" {
		return dir
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "Microsoft", "dotnet")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".dotnet"
	}

	return filepath.Join(home, ".dotnet")
}

// Resolve returns a handle for an install whose SDK list contains exactly the
// required version. A global install wins and leaves the search path alone;
// the local directory is only prepended when it's the one that matched.
// Version matching is strict string equality against the manifest value.
func (r *Resolver) Resolve(ctx context.Context, required string) (*Handle, error) {
	logger := zerolog.Ctx(ctx)

	exe, err := r.Search.LookPath(dotnetExe())
	if err == nil {
		ok, lErr := r.hasVersion(ctx, exe, required)
		if lErr != nil {
			return nil, lErr
		}

		if ok {
			logger.Debug().Str("dotnet", exe).Msgf("SDK %s found on the search path", required)
			return &Handle{DotnetPath: exe, Version: required, Location: LocationGlobal, Search: r.Search}, nil
		}
	}

	localExe := filepath.Join(r.LocalDir, dotnetExe())
	if isExecutable(localExe) {
		ok, lErr := r.hasVersion(ctx, localExe, required)
		if lErr != nil {
			return nil, lErr
		}

		if ok {
			if r.Search.Prepend(r.LocalDir) {
				logger.Debug().Str("dir", r.LocalDir).Msg("prepended the local install directory to the search path")
			}

			return &Handle{DotnetPath: localExe, Version: required, Location: LocationLocal, Search: r.Search}, nil
		}
	}

	return nil, eris.Wrapf(ErrNotFound, "SDK %s is neither on the search path nor in %s", required, r.LocalDir)
}

func (r *Resolver) hasVersion(ctx context.Context, exe, required string) (bool, error) {
	versions, err := r.ListSDKs(ctx, exe, r.Search.Environ())
	if err != nil {
		return false, eris.Wrapf(err, "failed to list SDKs for %s", exe)
	}

	for _, version := range versions {
		if version == required {
			return true, nil
		}
	}

	return false, nil
}

func dotnetExe() string {
	if runtime.GOOS == "windows" {
		return "dotnet.exe"
	}

	return "dotnet"
}

// listInstalledSDKs runs `dotnet --list-sdks` and parses lines of the form
// "6.0.100 [/usr/share/dotnet/sdk]".
func listInstalledSDKs(ctx context.Context, exe string, env []string) ([]string, error) {
	cmd := exec.CommandContext(ctx, exe, "--list-sdks")
	cmd.Env = env

	output, err := cmd.Output()
	if err != nil {
		return nil, eris.Wrapf(err, "%s --list-sdks failed", exe)
	}

	var versions []string
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			versions = append(versions, fields[0])
		}
	}

	return versions, nil
}
