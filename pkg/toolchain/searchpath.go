// Package toolchain locates or installs the .NET SDK the build requires and
// hands the rest of the build an environment that uses the resolved install.
package toolchain

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
)

// SearchPathContext is an explicit stand-in for the process PATH. The
// resolver never touches the ambient environment; it only edits this value
// and child processes inherit it through Environ.
type SearchPathContext struct {
	entries []string
	base    []string
}

// NewSearchPath captures the current process environment. The PATH entries
// become editable; everything else is passed through untouched.
func NewSearchPath() *SearchPathContext {
	ctx := &SearchPathContext{}

	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if strings.EqualFold(name, "PATH") && len(ctx.entries) == 0 {
			ctx.entries = filepath.SplitList(value)
			continue
		}

		ctx.base = append(ctx.base, kv)
	}

	return ctx
}

// NewSearchPathFrom builds a context from explicit entries. Used by tests and
// anything that wants a fully controlled environment.
func NewSearchPathFrom(entries []string, base []string) *SearchPathContext {
	return &SearchPathContext{entries: append([]string(nil), entries...), base: base}
}

// Entries returns a copy of the current search path entries.
func (c *SearchPathContext) Entries() []string {
	return append([]string(nil), c.entries...)
}

// Contains reports whether dir is already on the search path.
func (c *SearchPathContext) Contains(dir string) bool {
	dir = filepath.Clean(dir)
	for _, entry := range c.entries {
		if filepath.Clean(entry) == dir {
			return true
		}
	}

	return false
}

// Prepend puts dir at the front of the search path. Calling it again with the
// same directory is a no-op; it reports whether the path actually changed.
func (c *SearchPathContext) Prepend(dir string) bool {
	if c.Contains(dir) {
		return false
	}

	c.entries = append([]string{dir}, c.entries...)
	return true
}

// String renders the search path in the platform's PATH syntax.
func (c *SearchPathContext) String() string {
	return strings.Join(c.entries, string(os.PathListSeparator))
}

// Environ renders a complete environment for child processes.
func (c *SearchPathContext) Environ() []string {
	env := append([]string(nil), c.base...)
	return append(env, "PATH="+c.String())
}

// LookPath resolves an executable name against this context's entries only,
// deliberately ignoring the ambient PATH.
func (c *SearchPathContext) LookPath(name string) (string, error) {
	for _, entry := range c.entries {
		candidate := filepath.Join(entry, name)
		if runtime.GOOS == "windows" && !strings.HasSuffix(candidate, ".exe") {
			candidate += ".exe"
		}

		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", eris.Errorf("%s not found on the search path", name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if runtime.GOOS == "windows" {
		return true
	}

	return info.Mode()&0111 != 0
}
