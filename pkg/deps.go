package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/psmodkit/build-tools/pkg/manifest"
)

const stampsName = "PSDEPS.stamps"

var varMatcher = regexp.MustCompile(`\{([A-Z0-9_-]+)\}`)

// expandVars substitutes {NAME} placeholders in the URL and evaluates the
// if/ifNot conditions. It reports whether the dependency applies on this
// platform.
func expandVars(dep *manifest.Dep, vars map[string]string) bool {
	dep.URL = varMatcher.ReplaceAllStringFunc(dep.URL, func(name string) string {
		return vars[name[1:len(name)-1]]
	})

	for _, condition := range strings.Split(dep.Condition, ",") {
		if condition == "" {
			continue
		}

		if vars[strings.TrimSpace(condition)] == "" {
			return false
		}
	}

	for _, condition := range strings.Split(dep.Rejections, ",") {
		if condition == "" {
			continue
		}

		if vars[strings.TrimSpace(condition)] != "" {
			return false
		}
	}

	return true
}

func readStamps(path string) (map[string]string, error) {
	stamps := map[string]string{}

	data, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return stamps, nil
		}
		return nil, eris.Wrapf(err, "failed to read stamps file %s", path)
	}

	err = json.Unmarshal(data, &stamps)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse stamps file %s", path)
	}

	return stamps, nil
}

// FetchDeps reconciles the dependency manifest against the working tree.
// Entries whose destination exists with an unchanged stamp are skipped
// without any network I/O; everything else goes through exactly one
// download-and-extract sequence. The stamp file is persisted even when a
// later entry fails so finished work isn't repeated.
func FetchDeps(ctx context.Context, projectRoot string, m manifest.DepsManifest, force bool) (err error) {
	logger := zerolog.Ctx(ctx)

	stampPath := filepath.Join(projectRoot, stampsName)
	stamps, err := readStamps(stampPath)
	if err != nil {
		return err
	}

	defer func() {
		data, jErr := json.Marshal(stamps)
		if jErr == nil {
			jErr = os.WriteFile(stampPath, data, os.FileMode(0660))
		}
		if jErr != nil {
			logger.Warn().Err(jErr).Msg("failed to persist the dependency stamps")
		}
	}()

	vars := map[string]string{}
	for name, value := range m.Vars {
		vars[name] = value
	}
	vars[strings.ToUpper(runtime.GOOS)] = "true"
	vars[strings.ToUpper(runtime.GOARCH)] = "true"

	for _, dep := range m.Deps {
		dep := dep
		if !expandVars(&dep, vars) {
			logger.Debug().Str("dep", dep.Name).Msg("skipped (condition not met)")
			continue
		}

		destPath := filepath.Join(projectRoot, dep.Dest)
		destInfo, sErr := os.Stat(destPath)
		destExists := sErr == nil

		stampToken := dep.URL + "#" + dep.Sha256
		if !force && destExists && stamps[dep.Name] == stampToken {
			logger.Debug().Str("dep", dep.Name).Msg("already present")
			continue
		}

		if dep.Sha256 == "" {
			return eris.Errorf("dependency %s doesn't have a checksum", dep.Name)
		}

		PrintSubtask(dep.Name + ":  " + dep.URL)
		err = fetchDep(ctx, dep, destPath, destExists, destInfo)
		if err != nil {
			return err
		}

		stamps[dep.Name] = stampToken
	}

	return nil
}

func fetchDep(ctx context.Context, dep manifest.Dep, destPath string, destExists bool, destInfo os.FileInfo) error {
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("psdeps-%s.tmp", nanoid.New()))
	err := DownloadFile(ctx, dep.URL, tmpPath, dep.Sha256)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if destExists {
		if destInfo.IsDir() {
			err = os.RemoveAll(destPath)
		} else {
			err = os.Remove(destPath)
		}
		if err != nil {
			return eris.Wrapf(err, "failed to remove previous %s", destPath)
		}
	}

	handle, err := os.Open(tmpPath)
	if err != nil {
		return eris.Wrapf(err, "failed to reopen download %s", tmpPath)
	}
	defer handle.Close()

	stat, err := handle.Stat()
	if err != nil {
		return eris.Wrapf(err, "failed to stat download %s", tmpPath)
	}

	bar := NewProgressBar(stat.Size(), "      extract")
	err = Extract(handle, dep.URL, destPath, dep.Strip, bar)
	if err != nil {
		return eris.Wrapf(err, "failed to extract %s", dep.Name)
	}

	if runtime.GOOS != "windows" {
		// .zip files don't carry permissions so binaries have to be fixed up manually
		for _, binPath := range dep.MarkExec {
			binPath = filepath.Join(destPath, binPath)
			fi, err := os.Stat(binPath)
			if err != nil {
				return eris.Wrapf(err, "failed to read permissions for %s", binPath)
			}

			err = os.Chmod(binPath, fi.Mode()|0700)
			if err != nil {
				return eris.Wrapf(err, "failed to mark %s as executable", binPath)
			}
		}
	}

	return nil
}
