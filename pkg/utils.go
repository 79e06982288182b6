package pkg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// GetProjectRoot walks up from the working directory until it finds the
// directory that holds the SDK manifest (global.json).
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", eris.Wrap(err, "failed to retrieve the current working directory")
	}

	for {
		manifestPath := filepath.Join(dir, "global.json")
		_, err := os.Stat(manifestPath)
		if err == nil {
			return dir, nil
		}

		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(err, "error occurred while checking %s", manifestPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", eris.New("project root not found (no global.json in any parent directory)")
}

// InDir runs fn with the working directory changed to dir and restores the
// previous working directory on every exit path.
func InDir(dir string, fn func() error) error {
	prev, err := os.Getwd()
	if err != nil {
		return eris.Wrap(err, "failed to retrieve the current working directory")
	}

	err = os.Chdir(dir)
	if err != nil {
		return eris.Wrapf(err, "failed to enter %s", dir)
	}
	defer os.Chdir(prev)

	return fn()
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}

func PrintError(msg string) {
	colorstring.Printf("[red][bold]  ->[reset] %s\n", msg)
}
