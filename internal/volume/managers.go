package volume

import (
	"path/filepath"
	"sort"

	"github.com/adrg/xdg"
)

// managerSpec describes one package manager's cache layout: which project
// files imply it, which subdirectories its cache needs, where its system
// cache normally lives, and which environment variables redirect it to a
// bottle-local cache. Some managers need more than one variable.
type managerSpec struct {
	name    string
	markers []string // project files whose existence implies this manager
	subdirs []string // manager-specific cache subdirectories to pre-create
	envVars func(path string) map[string]string
	sysDir  string // relative to the XDG cache home
}

var managerCatalog = map[string]managerSpec{
	"pip": {
		name:    "pip",
		markers: []string{"requirements.txt", "setup.py", "setup.cfg"},
		subdirs: []string{"wheels", "http"},
		sysDir:  "pip",
		envVars: func(path string) map[string]string {
			return map[string]string{"PIP_CACHE_DIR": path}
		},
	},
	"uv": {
		name:    "uv",
		markers: []string{"uv.lock"},
		subdirs: []string{"wheels", "archive-v0"},
		sysDir:  "uv",
		envVars: func(path string) map[string]string {
			return map[string]string{
				"UV_CACHE_DIR":           path,
				"UV_PROJECT_ENVIRONMENT": filepath.Join(path, "venv"),
				"UV_PYTHON_PREFERENCE":   "only-system",
			}
		},
	},
	"poetry": {
		name:    "poetry",
		markers: []string{"poetry.lock"},
		subdirs: []string{"cache", "artifacts"},
		sysDir:  "pypoetry",
		envVars: func(path string) map[string]string {
			return map[string]string{"POETRY_CACHE_DIR": path}
		},
	},
	"npm": {
		name:    "npm",
		markers: []string{"package.json", "package-lock.json"},
		subdirs: []string{"_cacache"},
		sysDir:  "npm",
		envVars: func(path string) map[string]string {
			return map[string]string{"npm_config_cache": path}
		},
	},
	"pnpm": {
		name:    "pnpm",
		markers: []string{"pnpm-lock.yaml", "pnpm-workspace.yaml"},
		subdirs: []string{"store"},
		sysDir:  "pnpm",
		envVars: func(path string) map[string]string {
			return map[string]string{
				"PNPM_HOME":            path,
				"npm_config_store_dir": filepath.Join(path, "store"),
			}
		},
	},
	"yarn": {
		name:    "yarn",
		markers: []string{"yarn.lock"},
		subdirs: []string{"v6"},
		sysDir:  "yarn",
		envVars: func(path string) map[string]string {
			return map[string]string{"YARN_CACHE_FOLDER": path}
		},
	},
	"cargo": {
		name:    "cargo",
		markers: []string{"Cargo.toml", "Cargo.lock"},
		subdirs: []string{"registry", "git"},
		sysDir:  "cargo",
		envVars: func(path string) map[string]string {
			return map[string]string{"CARGO_HOME": path}
		},
	},
	"go": {
		name:    "go",
		markers: []string{"go.mod", "go.sum"},
		subdirs: []string{"download"},
		sysDir:  "go-mod",
		envVars: func(path string) map[string]string {
			return map[string]string{"GOMODCACHE": path}
		},
	},
	"maven": {
		name:    "maven",
		markers: []string{"pom.xml"},
		subdirs: []string{"repository"},
		sysDir:  "maven",
		envVars: func(path string) map[string]string {
			return map[string]string{"MAVEN_OPTS": "-Dmaven.repo.local=" + filepath.Join(path, "repository")}
		},
	},
}

// KnownManagers lists every manager in the catalog, sorted.
func KnownManagers() []string {
	names := make([]string, 0, len(managerCatalog))
	for name := range managerCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnownManager reports whether the catalog has an entry for name.
func IsKnownManager(name string) bool {
	_, ok := managerCatalog[name]
	return ok
}

// systemCachePath resolves where the manager's cache lives outside any
// bottle, under the platform cache home.
func systemCachePath(spec managerSpec) string {
	return filepath.Join(xdg.CacheHome, spec.sysDir)
}
