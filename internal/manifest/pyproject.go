package manifest

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/bottlehq/bottle/internal/fault"
)

// pyprojectFile mirrors the subset of pyproject.toml this system reads.
// pyproject.toml is a shared project-descriptor format: several managers
// (uv, poetry, pip/setuptools, hatch) write tool-specific tables into it,
// which is why detection is confidence-scored rather than exclusive.
type pyprojectFile struct {
	Project struct {
		Name           string              `toml:"name"`
		Version        string              `toml:"version"`
		Description    string              `toml:"description"`
		RequiresPython string              `toml:"requires-python"`
		Dependencies   []string            `toml:"dependencies"`
		OptionalDeps   map[string][]string `toml:"optional-dependencies"`
		Authors        []pyprojectAuthor   `toml:"authors"`
		License        interface{}         `toml:"license"`
	} `toml:"project"`
	BuildSystem struct {
		Requires     []string `toml:"requires"`
		BuildBackend string   `toml:"build-backend"`
	} `toml:"build-system"`
	DependencyGroups map[string][]string    `toml:"dependency-groups"`
	Tool             map[string]interface{} `toml:"tool"`
}

type pyprojectAuthor struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// ParsePyproject parses a pyproject.toml into a Manifest. Tool tables are
// surfaced in Metadata ("tool.uv", "tool.poetry", ...) so adapters can score
// detection without re-reading the file.
func ParsePyproject(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "cannot read %s", path)
	}

	var pp pyprojectFile
	if err := toml.Unmarshal(data, &pp); err != nil {
		return nil, fault.Wrap(fault.CodeParseFailed, err, "malformed pyproject.toml: %s", fault.Preview(string(data))).
			WithSuggestion("validate the file with a TOML linter")
	}

	m := New()
	m.Name = pp.Project.Name
	m.Version = pp.Project.Version
	m.Description = pp.Project.Description
	m.RequiresPython = pp.Project.RequiresPython
	m.License = licenseString(pp.Project.License)
	if len(pp.Project.Authors) > 0 {
		a := pp.Project.Authors[0]
		m.Author = a.Name
		if a.Name == "" {
			m.Author = a.Email
		}
	}

	for _, dep := range pp.Project.Dependencies {
		spec := ParseSpecifier(dep)
		m.Dependencies[spec.Name] = spec.Constraint
	}
	for group, deps := range pp.Project.OptionalDeps {
		for _, dep := range deps {
			spec := ParseSpecifier(dep)
			m.OptionalDeps[spec.Name] = spec.Constraint
			m.Metadata["optional_group_"+group] = true
		}
	}
	// PEP 735 dependency groups are development dependencies in the
	// normalized model ("dev" being the conventional group name).
	for _, deps := range pp.DependencyGroups {
		for _, dep := range deps {
			spec := ParseSpecifier(dep)
			m.DevDependencies[spec.Name] = spec.Constraint
		}
	}

	for tool := range pp.Tool {
		m.Metadata["tool."+strings.ToLower(tool)] = true
	}
	if pp.BuildSystem.BuildBackend != "" {
		m.Metadata["build_backend"] = pp.BuildSystem.BuildBackend
	}

	// Poetry predates [project] and keeps its own dependency table.
	if poetry, ok := pp.Tool["poetry"].(map[string]interface{}); ok {
		applyPoetryTable(m, poetry)
	}
	if uvTool, ok := pp.Tool["uv"].(map[string]interface{}); ok {
		if _, ws := uvTool["workspace"]; ws {
			m.Metadata["is_workspace_root"] = true
		}
	}

	return m, nil
}

func applyPoetryTable(m *Manifest, poetry map[string]interface{}) {
	if m.Name == "" {
		if name, ok := poetry["name"].(string); ok {
			m.Name = name
		}
	}
	if m.Version == "" {
		if v, ok := poetry["version"].(string); ok {
			m.Version = v
		}
	}
	if deps, ok := poetry["dependencies"].(map[string]interface{}); ok {
		for name, v := range deps {
			if NormalizeName(name) == "python" {
				if s, ok := v.(string); ok && m.RequiresPython == "" {
					m.RequiresPython = s
				}
				continue
			}
			m.Dependencies[NormalizeName(name)] = poetryConstraint(v)
		}
	}
	if group, ok := poetry["group"].(map[string]interface{}); ok {
		for _, g := range group {
			gm, ok := g.(map[string]interface{})
			if !ok {
				continue
			}
			deps, ok := gm["dependencies"].(map[string]interface{})
			if !ok {
				continue
			}
			for name, v := range deps {
				m.DevDependencies[NormalizeName(name)] = poetryConstraint(v)
			}
		}
	}
}

// poetryConstraint renders poetry's constraint forms (plain string, or a
// table with version/git/path keys) as a constraint string.
func poetryConstraint(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case map[string]interface{}:
		if ver, ok := c["version"].(string); ok {
			return ver
		}
		if git, ok := c["git"].(string); ok {
			return "vcs:" + git
		}
		if p, ok := c["path"].(string); ok {
			return "path:" + p
		}
	}
	return ""
}

func licenseString(v interface{}) string {
	switch l := v.(type) {
	case string:
		return l
	case map[string]interface{}:
		if text, ok := l["text"].(string); ok {
			return text
		}
		if file, ok := l["file"].(string); ok {
			return file
		}
	}
	return ""
}
