// Package project resolves the directory a bottle should operate on.
package project

import (
	"os"
	"path/filepath"
)

// Files whose presence marks a project root, checked before falling back to
// the git toplevel.
var rootMarkers = []string{
	"pyproject.toml",
	"requirements.txt",
	"package.json",
	"Cargo.toml",
	"go.mod",
	"pom.xml",
}

// FindRoot walks up from dir looking for a package-manager manifest or a
// .git directory and returns the first directory containing one. When
// nothing matches, dir itself is returned.
func FindRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for current := abs; ; {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current
			}
		}
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		current = parent
	}
}
