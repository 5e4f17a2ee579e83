// Package adapter defines the contract every package-manager adapter
// implements — project detection with confidence scoring, manifest parsing,
// and install/uninstall/list command construction — plus the compile-time
// registry that maps manager identifiers to constructors.
package adapter

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bottlehq/bottle/internal/execshell"
	"github.com/bottlehq/bottle/internal/fault"
	"github.com/bottlehq/bottle/internal/manifest"
	"github.com/bottlehq/bottle/internal/volume"
)

// Executor is the slice of the execution engine adapters depend on. Narrow
// on purpose: adapters submit commands, the engine owns the process.
type Executor interface {
	Execute(command string, timeout time.Duration) (execshell.Result, error)
}

// Deps carries an adapter's constructor-injected collaborators. Adapters are
// stateless beyond these; all per-call state lives in parameters and
// return values.
type Deps struct {
	Engine     Executor
	Volumes    *volume.Controller
	Env        map[string]string // caller environment overrides
	ProjectDir string
}

// Adapter is implemented once per package manager.
type Adapter interface {
	// Name returns the manager identifier ("pip", "uv", "npm").
	Name() string
	// DetectProject scores how likely this manager governs dir.
	DetectProject(dir string) (Detection, error)
	// ParseManifest returns the normalized manifest, or a no-manifest result
	// when no recognized file exists. An absent file is ordinary, not an
	// error.
	ParseManifest(dir string) (ParseResult, error)
	// InstallPackages installs the named packages through the engine.
	InstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error)
	// UninstallPackages removes the named packages.
	UninstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error)
	// InstalledPackages lists what is currently installed for dir.
	InstalledPackages(dir string) (ListResult, error)
}

// InstallOptions tune one install/uninstall call.
type InstallOptions struct {
	Dev     bool // install into the development group where supported
	Upgrade bool
	Env     map[string]string // per-call environment overrides
	Timeout time.Duration     // 0 means the operation's default tier
}

// InstallResult reports one install/uninstall call.
type InstallResult struct {
	Packages []string
	Output   string
	Duration time.Duration
}

// ParseResult is the tagged outcome of ParseManifest.
type ParseResult struct {
	Found    bool
	Manifest *manifest.Manifest
}

// Package is one installed package as reported by the manager.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ListResult is the tagged outcome of InstalledPackages. Empty distinguishes
// a legitimately empty environment from a parse failure (which is an error,
// never an empty result).
type ListResult struct {
	Packages []Package
	Empty    bool
}

// Factory constructs an adapter with its collaborators.
type Factory func(deps Deps) Adapter

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register adds a manager's factory to the registry. Duplicate registration
// is a programming error and panics at startup rather than shadowing.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("adapter %q registered twice", name))
	}
	registry[name] = f
}

// Lookup returns an adapter for the named manager.
func Lookup(name string, deps Deps) (Adapter, error) {
	registryMu.Lock()
	f, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fault.New(fault.CodeAdapterNotFound, "no adapter registered for %q", name).
			WithSuggestion(fmt.Sprintf("registered adapters: %v", Registered()))
	}
	return f(deps), nil
}

// Registered lists registered manager names, sorted.
func Registered() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ranked pairs an adapter name with its detection result.
type Ranked struct {
	Name      string
	Detection Detection
}

// DetectAll runs every registered adapter's detection against dir and
// returns the results sorted by confidence, highest first. Adapters that
// error are skipped; detection is advisory, not load-bearing.
func DetectAll(dir string, deps Deps) []Ranked {
	var out []Ranked
	for _, name := range Registered() {
		a, err := Lookup(name, deps)
		if err != nil {
			continue
		}
		det, err := a.DetectProject(dir)
		if err != nil || det.Confidence <= 0 {
			continue
		}
		out = append(out, Ranked{Name: name, Detection: det})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Detection.Confidence > out[j].Detection.Confidence
	})
	return out
}
