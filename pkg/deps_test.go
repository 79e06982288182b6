package pkg

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/psmodkit/build-tools/pkg/manifest"
)

// buildTarGz returns a .tar.gz archive containing the given files.
func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err = tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err = w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func checksum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

func depsManifest(url, sum string) manifest.DepsManifest {
	return manifest.DepsManifest{
		Module: manifest.Module{Name: "PSExample", Version: "1.0.0"},
		Deps: manifest.DepList{
			{Name: "helper", URL: url, Sha256: sum, Dest: ".tools/helper"},
		},
	}
}

func TestFetchDepsDownloadsMissingDep(t *testing.T) {
	archive := buildTarGz(t, map[string]string{"helper.psm1": "function Invoke-Helper {}"})

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(archive)
	}))
	defer server.Close()

	root := t.TempDir()
	url := server.URL + "/helper.tar.gz"
	m := depsManifest(url, checksum(archive))

	err := FetchDeps(context.Background(), root, m, false)
	if err != nil {
		t.Fatalf("FetchDeps failed: %v", err)
	}

	if requests != 1 {
		t.Errorf("%d downloads for one missing dep, expected exactly 1", requests)
	}

	data, err := os.ReadFile(filepath.Join(root, ".tools", "helper", "helper.psm1"))
	if err != nil {
		t.Fatalf("extracted file is missing: %v", err)
	}
	if string(data) != "function Invoke-Helper {}" {
		t.Errorf("extracted content = %q", data)
	}

	// second run: dest exists and the stamp matches, no network traffic
	err = FetchDeps(context.Background(), root, m, false)
	if err != nil {
		t.Fatalf("second FetchDeps failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("%d downloads after a no-op re-run, expected still 1", requests)
	}
}

func TestFetchDepsRefetchesOnChangedStamp(t *testing.T) {
	archive := buildTarGz(t, map[string]string{"helper.psm1": "v2"})

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(archive)
	}))
	defer server.Close()

	root := t.TempDir()
	url := server.URL + "/helper.tar.gz"
	m := depsManifest(url, checksum(archive))

	// fake a previous install with a different stamp
	destDir := filepath.Join(root, ".tools", "helper")
	if err := os.MkdirAll(destDir, 0770); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(root, "PSDEPS.stamps"), []byte(`{"helper": "old-url#old-sum"}`), 0660)
	if err != nil {
		t.Fatal(err)
	}

	err = FetchDeps(context.Background(), root, m, false)
	if err != nil {
		t.Fatalf("FetchDeps failed: %v", err)
	}

	if requests != 1 {
		t.Errorf("%d downloads for a stale dep, expected 1", requests)
	}
}

func TestFetchDepsChecksumMismatch(t *testing.T) {
	archive := buildTarGz(t, map[string]string{"helper.psm1": "x"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	m := depsManifest(server.URL+"/helper.tar.gz", "0000000000000000000000000000000000000000000000000000000000000000")

	err := FetchDeps(context.Background(), t.TempDir(), m, false)
	if err == nil {
		t.Error("FetchDeps accepted a checksum mismatch")
	}
}

func TestFetchDepsRequiresChecksum(t *testing.T) {
	m := depsManifest("https://example.invalid/helper.tar.gz", "")

	err := FetchDeps(context.Background(), t.TempDir(), m, false)
	if err == nil {
		t.Error("FetchDeps accepted a dependency without a checksum")
	}
}

func TestFetchDepsSkipsUnmatchedCondition(t *testing.T) {
	m := manifest.DepsManifest{
		Module: manifest.Module{Name: "PSExample", Version: "1.0.0"},
		Deps: manifest.DepList{
			{
				Name:      "winonly",
				Condition: "NEVER_SET",
				URL:       "https://example.invalid/helper.tar.gz",
				Sha256:    "abc",
				Dest:      ".tools/winonly",
			},
		},
	}

	// the URL is unreachable on purpose; a skipped dep must not be fetched
	err := FetchDeps(context.Background(), t.TempDir(), m, false)
	if err != nil {
		t.Errorf("FetchDeps = %v, expected the conditional dep to be skipped", err)
	}
}

func TestFetchDepsExpandsVars(t *testing.T) {
	archive := buildZip(t, map[string]string{"tool.ps1": "# tool"})

	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write(archive)
	}))
	defer server.Close()

	m := manifest.DepsManifest{
		Module: manifest.Module{Name: "PSExample", Version: "1.0.0"},
		Vars:   map[string]string{"TOOL_VERSION": "2.1.0"},
		Deps: manifest.DepList{
			{Name: "tool", URL: server.URL + "/tool-{TOOL_VERSION}.zip", Sha256: checksum(archive), Dest: ".tools/tool"},
		},
	}

	err := FetchDeps(context.Background(), t.TempDir(), m, false)
	if err != nil {
		t.Fatalf("FetchDeps failed: %v", err)
	}

	if requestedPath != "/tool-2.1.0.zip" {
		t.Errorf("requested %s, expected the {TOOL_VERSION} placeholder expanded", requestedPath)
	}
}
