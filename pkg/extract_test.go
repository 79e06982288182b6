package pkg

import (
	"os"
	"path/filepath"
	"testing"
)

func writeArchive(t *testing.T, name string, data []byte) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0660); err != nil {
		t.Fatal(err)
	}

	handle, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { handle.Close() })

	return handle
}

func TestExtractZipStripsLeadingElements(t *testing.T) {
	data := buildZip(t, map[string]string{
		"tool-2.1.0/bin/tool.ps1": "# tool",
		"tool-2.1.0/readme.md":    "docs",
	})
	handle := writeArchive(t, "tool.zip", data)

	dest := t.TempDir()
	err := Extract(handle, "tool.zip", dest, 1, NewProgressBar(int64(len(data)), "extract"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dest, "bin", "tool.ps1"))
	if err != nil {
		t.Fatalf("stripped file missing: %v", err)
	}
	if string(content) != "# tool" {
		t.Errorf("content = %q", content)
	}

	if _, err = os.Stat(filepath.Join(dest, "tool-2.1.0")); err == nil {
		t.Error("the leading path element wasn't stripped")
	}
}

func TestExtractTarGz(t *testing.T) {
	data := buildTarGz(t, map[string]string{"a/b.txt": "nested"})
	handle := writeArchive(t, "dep.tar.gz", data)

	dest := t.TempDir()
	err := Extract(handle, "dep.tar.gz", dest, 0, NewProgressBar(int64(len(data)), "extract"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dest, "a", "b.txt"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(content) != "nested" {
		t.Errorf("content = %q", content)
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	handle := writeArchive(t, "dep.rar", []byte("not an archive"))

	err := Extract(handle, "dep.rar", t.TempDir(), 0, NewProgressBar(1, "extract"))
	if err == nil {
		t.Error("Extract accepted an unsupported format")
	}
}
