// Package manifest reads the two manifests the build consumes: the SDK
// manifest (global.json) which pins the .NET SDK version, and the dependency
// manifest (PSDEPS.yml) which declares the module metadata, build-time helper
// modules and optional hook tasks.
//
// Both are read once at startup and never mutated.
package manifest

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound indicates a manifest file that doesn't exist.
	ErrNotFound = eris.New("manifest not found")
	// ErrSchemaInvalid indicates a manifest that exists but can't be used.
	ErrSchemaInvalid = eris.New("manifest schema invalid")
)

// SDKManifest mirrors the parts of global.json we care about.
type SDKManifest struct {
	SDK struct {
		Version string `json:"version"`
	} `json:"sdk"`
}

// LoadSDK reads and validates the SDK manifest at the given path.
func LoadSDK(path string) (SDKManifest, error) {
	var m SDKManifest

	data, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return m, eris.Wrapf(ErrNotFound, "no SDK manifest at %s", path)
		}
		return m, eris.Wrapf(err, "failed to read %s", path)
	}

	err = json.Unmarshal(data, &m)
	if err != nil {
		return m, eris.Wrapf(ErrSchemaInvalid, "failed to parse %s: %v", path, err)
	}

	if m.SDK.Version == "" {
		return m, eris.Wrapf(ErrSchemaInvalid, "%s is missing sdk.version", path)
	}

	return m, nil
}

// Module describes the PowerShell module this repository builds.
type Module struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Prerelease string `yaml:"prerelease,omitempty"`
	SourceDir  string `yaml:"sourceDir"`
	TestDir    string `yaml:"testDir"`
	DocsDir    string `yaml:"docsDir"`
}

// Dep declares one build-time dependency: an archive that has to be
// downloaded and unpacked below the project root before any task runs.
type Dep struct {
	Name       string   `yaml:"-"`
	Condition  string   `yaml:"if,omitempty"`
	Rejections string   `yaml:"ifNot,omitempty"`
	URL        string   `yaml:"url"`
	Sha256     string   `yaml:"sha256"`
	Dest       string   `yaml:"dest"`
	Strip      int      `yaml:"strip,omitempty"`
	MarkExec   []string `yaml:"markExec,omitempty"`
}

// Hook is a shell snippet the manifest registers as an additional task.
type Hook struct {
	Name string   `yaml:"name"`
	Desc string   `yaml:"desc,omitempty"`
	Deps []string `yaml:"deps,omitempty"`
	Run  string   `yaml:"run"`
}

// DepsManifest is the parsed PSDEPS.yml.
type DepsManifest struct {
	Vars   map[string]string `yaml:"vars,omitempty"`
	Module Module            `yaml:"module"`
	Deps   DepList           `yaml:"deps"`
	Hooks  []Hook            `yaml:"hooks,omitempty"`
}

// DepList preserves the declaration order of the deps mapping. A plain
// map[string]Dep would lose it and the fetch order is part of the contract.
type DepList []Dep

func (d *DepList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return eris.New("deps must be a mapping of name to spec")
	}

	result := make(DepList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var spec Dep
		err := node.Content[i+1].Decode(&spec)
		if err != nil {
			return eris.Wrapf(err, "failed to parse dependency %s", node.Content[i].Value)
		}

		spec.Name = node.Content[i].Value
		result = append(result, spec)
	}

	*d = result
	return nil
}

// LoadDeps reads and validates the dependency manifest at the given path.
func LoadDeps(path string) (DepsManifest, error) {
	var m DepsManifest

	data, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return m, eris.Wrapf(ErrNotFound, "no dependency manifest at %s", path)
		}
		return m, eris.Wrapf(err, "failed to read %s", path)
	}

	err = yaml.Unmarshal(data, &m)
	if err != nil {
		return m, eris.Wrapf(ErrSchemaInvalid, "failed to parse %s: %v", path, err)
	}

	if m.Module.Name == "" || m.Module.Version == "" {
		return m, eris.Wrapf(ErrSchemaInvalid, "%s is missing the module name or version", path)
	}

	for _, dep := range m.Deps {
		if dep.URL == "" || dep.Dest == "" {
			return m, eris.Wrapf(ErrSchemaInvalid, "dependency %s needs both url and dest", dep.Name)
		}
	}

	for _, hook := range m.Hooks {
		if hook.Name == "" || hook.Run == "" {
			return m, eris.Wrapf(ErrSchemaInvalid, "%s contains a hook without name or run", path)
		}
	}

	return m, nil
}
