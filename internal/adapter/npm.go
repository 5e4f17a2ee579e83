package adapter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bottlehq/bottle/internal/fault"
	"github.com/bottlehq/bottle/internal/manifest"
)

func init() {
	Register("npm", func(deps Deps) Adapter { return &npmAdapter{deps: deps} })
}

// npmAdapter drives npm. package.json is shared with yarn and pnpm, whose
// lock files are the deciding signal either way.
type npmAdapter struct {
	deps Deps
}

func (a *npmAdapter) Name() string { return "npm" }

func (a *npmAdapter) DetectProject(dir string) (Detection, error) {
	d := newDetection()

	if p := filepath.Join(dir, "package.json"); exists(p) {
		d.add("package_json", signalManifest)
		d.ManifestFiles = append(d.ManifestFiles, p)
	}
	if lock := filepath.Join(dir, "package-lock.json"); exists(lock) {
		d.add("package_lock", signalLock)
		d.LockFiles = append(d.LockFiles, lock)
	}
	if exists(filepath.Join(dir, "yarn.lock")) {
		d.penalize("competing_yarn_lock", competingPenalty)
	}
	if exists(filepath.Join(dir, "pnpm-lock.yaml")) {
		d.penalize("competing_pnpm_lock", competingPenalty)
	}

	d.clamp()
	return d, nil
}

// packageJSON is the subset of package.json the normalized model needs.
type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	License         string            `json:"license"`
	Author          interface{}       `json:"author"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	OptionalDeps    map[string]string `json:"optionalDependencies"`
	Workspaces      []string          `json:"workspaces"`
}

func (a *npmAdapter) ParseManifest(dir string) (ParseResult, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ParseResult{}, nil
		}
		return ParseResult{}, fault.Wrap(fault.CodeParseFailed, err, "cannot read %s", path)
	}

	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return ParseResult{}, fault.Wrap(fault.CodeParseFailed, err, "malformed package.json: %s", fault.Preview(string(data))).
			WithSuggestion("validate the file with a JSON linter")
	}

	m := manifest.New()
	m.Name = pj.Name
	m.Version = pj.Version
	m.Description = pj.Description
	m.License = pj.License
	m.Author = npmAuthor(pj.Author)
	for name, constraint := range pj.Dependencies {
		m.Dependencies[name] = constraint
	}
	for name, constraint := range pj.DevDependencies {
		m.DevDependencies[name] = constraint
	}
	for name, constraint := range pj.OptionalDeps {
		m.OptionalDeps[name] = constraint
	}
	if len(pj.Workspaces) > 0 {
		m.Metadata["is_workspace_root"] = true
	}

	if lock := filepath.Join(dir, "package-lock.json"); exists(lock) {
		pins, err := manifest.ParsePackageLock(lock)
		if err != nil {
			return ParseResult{}, err
		}
		pinNPM(m, pins)
	} else if lock := filepath.Join(dir, "pnpm-lock.yaml"); exists(lock) {
		pins, err := manifest.ParsePnpmLock(lock)
		if err != nil {
			return ParseResult{}, err
		}
		pinNPM(m, pins)
	}
	return ParseResult{Found: true, Manifest: m}, nil
}

// pinNPM replaces range constraints with exact locked versions for declared
// dependencies. npm constraints have no operator prefix for exact pins.
func pinNPM(m *manifest.Manifest, pins map[string]string) {
	for name := range m.Dependencies {
		if v, ok := pins[name]; ok && v != "" {
			m.Dependencies[name] = v
		}
	}
	for name := range m.DevDependencies {
		if v, ok := pins[name]; ok && v != "" {
			m.DevDependencies[name] = v
		}
	}
	for name := range m.OptionalDeps {
		if v, ok := pins[name]; ok && v != "" {
			m.OptionalDeps[name] = v
		}
	}
	m.Metadata["has_lock_file"] = true
}

func npmAuthor(v interface{}) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]interface{}:
		if name, ok := a["name"].(string); ok {
			return name
		}
	}
	return ""
}

func (a *npmAdapter) InstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	args := []string{"npm", "install", "--no-fund", "--no-audit"}
	if opts.Dev {
		args = append(args, "--save-dev")
	}
	args = append(args, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

func (a *npmAdapter) UninstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	args := append([]string{"npm", "uninstall"}, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

// npmList mirrors `npm ls --json` output: a dependencies tree keyed by name.
type npmList struct {
	Dependencies map[string]struct {
		Version string `json:"version"`
	} `json:"dependencies"`
}

func (a *npmAdapter) InstalledPackages(dir string) (ListResult, error) {
	cmd := withEnv(a.deps.commandEnv(nil), "npm ls --json --depth=0")
	res, err := a.deps.Engine.Execute(cmd, Timeout(TierQuick))
	if err != nil {
		return ListResult{}, err
	}
	if res.TimedOut {
		return ListResult{}, fault.New(fault.CodeExecFailed, "npm ls timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("raise BOTTLE_TIMEOUT_MULTIPLIER or check that npm is responsive")
	}

	var tree npmList
	empty, err := ExtractJSON(res.Stdout, &tree)
	if err != nil {
		return ListResult{}, err
	}
	if empty || len(tree.Dependencies) == 0 {
		return ListResult{Empty: true}, nil
	}
	pkgs := make([]Package, 0, len(tree.Dependencies))
	for name, entry := range tree.Dependencies {
		pkgs = append(pkgs, Package{Name: name, Version: entry.Version})
	}
	return ListResult{Packages: pkgs}, nil
}

func (a *npmAdapter) run(cmd string, pkgs []string, opts InstallOptions) (InstallResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = Timeout(TierStandard)
	}
	full := withEnv(a.deps.commandEnv(opts.Env), cmd)
	res, err := a.deps.Engine.Execute(full, timeout)
	if err != nil {
		return InstallResult{}, err
	}
	if res.TimedOut {
		return InstallResult{}, fault.New(fault.CodeExecFailed, "npm command timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("retry with a larger timeout tier")
	}
	if res.ExitCode != 0 {
		return InstallResult{}, fault.New(fault.CodeExecFailed, "npm exited with code %d: %s", res.ExitCode, fault.Preview(res.Stderr)).
			WithSuggestion("ensure node and npm are installed and on PATH")
	}
	return InstallResult{Packages: pkgs, Output: res.Stdout, Duration: res.Duration}, nil
}
