// Package manifest parses package-manager project files into a normalized,
// dialect-independent dependency model. Parsers are read-only: a Manifest is
// re-derived from disk on every call and never persisted.
package manifest

// Manifest is the normalized dependency description shared by all adapters.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`

	// Dependency maps keyed by normalized package name. Values are version
	// constraint strings in the source dialect ("" means unconstrained).
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"dev_dependencies"`
	OptionalDeps    map[string]string `json:"optional_dependencies"`

	RequiresPython string `json:"requires_python,omitempty"`
	Author         string `json:"author,omitempty"`
	License        string `json:"license,omitempty"`

	// Metadata carries dialect-specific facts ("has_lock_file",
	// "is_workspace_root", source file paths) that don't fit the shared shape.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// New returns an empty Manifest with all maps allocated.
func New() *Manifest {
	return &Manifest{
		Dependencies:    make(map[string]string),
		DevDependencies: make(map[string]string),
		OptionalDeps:    make(map[string]string),
		Metadata:        make(map[string]interface{}),
	}
}

// SetDependency records a runtime dependency, overwriting any prior value.
func (m *Manifest) SetDependency(name, constraint string) {
	m.Dependencies[NormalizeName(name)] = constraint
}

// ApplyLock overrides range constraints with exact pinned versions from a
// lock file. Only packages the manifest declares are pinned: a lock records
// the full transitive closure, and flooding the model with transitive
// entries would bury the declared dependencies.
func (m *Manifest) ApplyLock(pins map[string]string) {
	pin := func(deps map[string]string) {
		for name := range deps {
			if v, ok := pins[name]; ok && v != "" {
				deps[name] = "==" + v
			}
		}
	}
	pin(m.Dependencies)
	pin(m.DevDependencies)
	pin(m.OptionalDeps)
	m.Metadata["has_lock_file"] = true
}

// Merge layers another manifest over this one. Non-empty scalar fields from
// the overlay win; dependency maps are merged with the overlay taking
// precedence. Used for base + environment-specific override files.
func (m *Manifest) Merge(overlay *Manifest) {
	if overlay == nil {
		return
	}
	if overlay.Name != "" {
		m.Name = overlay.Name
	}
	if overlay.Version != "" {
		m.Version = overlay.Version
	}
	if overlay.Description != "" {
		m.Description = overlay.Description
	}
	if overlay.RequiresPython != "" {
		m.RequiresPython = overlay.RequiresPython
	}
	if overlay.Author != "" {
		m.Author = overlay.Author
	}
	if overlay.License != "" {
		m.License = overlay.License
	}
	for k, v := range overlay.Dependencies {
		m.Dependencies[k] = v
	}
	for k, v := range overlay.DevDependencies {
		m.DevDependencies[k] = v
	}
	for k, v := range overlay.OptionalDeps {
		m.OptionalDeps[k] = v
	}
	for k, v := range overlay.Metadata {
		m.Metadata[k] = v
	}
}
