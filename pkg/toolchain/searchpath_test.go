package toolchain

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestPrependIsIdempotent(t *testing.T) {
	ctx := NewSearchPathFrom([]string{"/usr/bin"}, nil)

	if !ctx.Prepend("/opt/sdk") {
		t.Error("first Prepend reported no change")
	}
	if ctx.Prepend("/opt/sdk") {
		t.Error("second Prepend of the same directory reported a change")
	}

	entries := ctx.Entries()
	if len(entries) != 2 || entries[0] != "/opt/sdk" || entries[1] != "/usr/bin" {
		t.Errorf("entries = %v, expected [/opt/sdk /usr/bin]", entries)
	}
}

func TestContainsCleansPaths(t *testing.T) {
	ctx := NewSearchPathFrom([]string{"/opt/sdk/"}, nil)

	if !ctx.Contains("/opt/sdk") {
		t.Error("Contains doesn't normalize trailing separators")
	}
}

func TestEnvironCarriesBaseAndPath(t *testing.T) {
	ctx := NewSearchPathFrom([]string{"/opt/sdk", "/usr/bin"}, []string{"HOME=/home/build"})

	env := ctx.Environ()
	expectedPath := "PATH=" + strings.Join([]string{"/opt/sdk", "/usr/bin"}, string(os.PathListSeparator))

	foundHome := false
	foundPath := false
	for _, kv := range env {
		switch kv {
		case "HOME=/home/build":
			foundHome = true
		case expectedPath:
			foundPath = true
		}
	}

	if !foundHome || !foundPath {
		t.Errorf("Environ() = %v, expected it to contain HOME and %s", env, expectedPath)
	}
}

func TestLookPathIgnoresAmbientPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test fixture relies on POSIX exec bits")
	}

	dir := t.TempDir()
	exe := filepath.Join(dir, "sometool")
	err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755)
	if err != nil {
		t.Fatal(err)
	}

	ctx := NewSearchPathFrom([]string{dir}, nil)
	resolved, err := ctx.LookPath("sometool")
	if err != nil {
		t.Fatalf("LookPath failed: %v", err)
	}
	if resolved != exe {
		t.Errorf("LookPath = %s, expected %s", resolved, exe)
	}

	empty := NewSearchPathFrom(nil, nil)
	_, err = empty.LookPath("sometool")
	if err == nil {
		t.Error("LookPath found an executable on an empty search path")
	}
}

func TestLookPathSkipsNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test fixture relies on POSIX exec bits")
	}

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "sometool"), []byte("data"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	ctx := NewSearchPathFrom([]string{dir}, nil)
	_, err = ctx.LookPath("sometool")
	if err == nil {
		t.Error("LookPath returned a file without the exec bit")
	}
}
