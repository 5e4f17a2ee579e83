package manifest

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bottlehq/bottle/internal/fault"
)

// Lock file parsers return pinned name→version maps which callers apply over
// a parsed manifest via Manifest.ApplyLock. Exact pins always win over the
// manifest's range constraints.

// ParseUvLock parses a uv.lock file ([[package]] entries with exact resolved
// versions and per-package source/dependency edges).
func ParseUvLock(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "cannot read %s", path)
	}
	var lock struct {
		Version  int `toml:"version"`
		Packages []struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
			Source  struct {
				Registry string `toml:"registry"`
				Git      string `toml:"git"`
				Path     string `toml:"path"`
			} `toml:"source"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "malformed uv.lock: %s", fault.Preview(string(data)))
	}
	pins := make(map[string]string, len(lock.Packages))
	for _, p := range lock.Packages {
		if p.Name == "" {
			continue
		}
		pins[NormalizeName(p.Name)] = p.Version
	}
	return pins, nil
}

// ParsePoetryLock parses a poetry.lock file (same [[package]] shape as
// uv.lock, different metadata tables).
func ParsePoetryLock(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "cannot read %s", path)
	}
	var lock struct {
		Packages []struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "malformed poetry.lock: %s", fault.Preview(string(data)))
	}
	pins := make(map[string]string, len(lock.Packages))
	for _, p := range lock.Packages {
		if p.Name == "" {
			continue
		}
		pins[NormalizeName(p.Name)] = p.Version
	}
	return pins, nil
}

// ParsePackageLock parses an npm package-lock.json (v2/v3 "packages" map;
// falls back to the legacy "dependencies" tree).
func ParsePackageLock(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "cannot read %s", path)
	}
	var lock struct {
		Packages map[string]struct {
			Version string `json:"version"`
		} `json:"packages"`
		Dependencies map[string]struct {
			Version string `json:"version"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "malformed package-lock.json: %s", fault.Preview(string(data)))
	}
	pins := make(map[string]string)
	for pkgPath, entry := range lock.Packages {
		if pkgPath == "" {
			continue // root project entry
		}
		// Keys look like "node_modules/@scope/name"; the name is everything
		// after the last node_modules segment.
		name := pkgPath
		if i := strings.LastIndex(pkgPath, "node_modules/"); i >= 0 {
			name = pkgPath[i+len("node_modules/"):]
		}
		pins[name] = entry.Version
	}
	if len(pins) == 0 {
		for name, entry := range lock.Dependencies {
			pins[name] = entry.Version
		}
	}
	return pins, nil
}

// ParsePnpmLock parses a pnpm-lock.yaml dependency map. Only direct
// dependencies are pinned; transitive entries live under "packages" keyed by
// registry path and are not part of the normalized model.
func ParsePnpmLock(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "cannot read %s", path)
	}
	var lock struct {
		Dependencies map[string]struct {
			Version string `yaml:"version"`
		} `yaml:"dependencies"`
		DevDependencies map[string]struct {
			Version string `yaml:"version"`
		} `yaml:"devDependencies"`
	}
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "malformed pnpm-lock.yaml: %s", fault.Preview(string(data)))
	}
	pins := make(map[string]string)
	for name, entry := range lock.Dependencies {
		pins[name] = pnpmVersion(entry.Version)
	}
	for name, entry := range lock.DevDependencies {
		pins[name] = pnpmVersion(entry.Version)
	}
	return pins, nil
}

// pnpmVersion strips pnpm's peer-dependency suffix: "1.2.3(react@18.2.0)".
func pnpmVersion(v string) string {
	if i := strings.Index(v, "("); i >= 0 {
		return v[:i]
	}
	return v
}
