package adapter

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bottlehq/bottle/internal/fault"
	"github.com/bottlehq/bottle/internal/manifest"
)

func init() {
	Register("pip", func(deps Deps) Adapter { return &pipAdapter{deps: deps} })
}

// pipAdapter drives the standard Python installer. pip shares pyproject.toml
// with uv and poetry, so detection leans on requirements files and penalizes
// directories that carry a competing manager's lock.
type pipAdapter struct {
	deps Deps
}

func (a *pipAdapter) Name() string { return "pip" }

func (a *pipAdapter) DetectProject(dir string) (Detection, error) {
	d := newDetection()

	if p := filepath.Join(dir, "requirements.txt"); exists(p) {
		d.add("requirements_txt", signalManifest)
		d.ManifestFiles = append(d.ManifestFiles, p)
		// A requirements file is pip's own dialect; other managers merely
		// tolerate it.
		d.add("own_manifest_format", signalOwnManifest)
	}
	for _, name := range []string{"requirements-dev.txt", "dev-requirements.txt", "requirements-test.txt"} {
		if p := filepath.Join(dir, name); exists(p) {
			d.add("layered_requirements", signalToolConfig)
			d.ManifestFiles = append(d.ManifestFiles, p)
			break
		}
	}
	if p := filepath.Join(dir, "pyproject.toml"); exists(p) {
		if len(d.ManifestFiles) == 0 {
			d.add("pyproject", signalManifest)
		}
		d.ManifestFiles = append(d.ManifestFiles, p)
	}
	for _, name := range []string{"setup.py", "setup.cfg"} {
		if p := filepath.Join(dir, name); exists(p) {
			d.add("setuptools_"+name, signalToolConfig)
			d.ManifestFiles = append(d.ManifestFiles, p)
		}
	}

	// Competing Python managers own the project if their lock is present.
	if exists(filepath.Join(dir, "uv.lock")) {
		d.penalize("competing_uv_lock", competingPenalty)
	}
	if exists(filepath.Join(dir, "poetry.lock")) {
		d.penalize("competing_poetry_lock", competingPenalty)
	}

	d.clamp()
	return d, nil
}

func (a *pipAdapter) ParseManifest(dir string) (ParseResult, error) {
	var m *manifest.Manifest

	if p := filepath.Join(dir, "pyproject.toml"); exists(p) {
		parsed, err := manifest.ParsePyproject(p)
		if err != nil {
			return ParseResult{}, err
		}
		m = parsed
	}

	// Layered requirements: base file first, then dev/test overrides merged
	// into the development group.
	if p := filepath.Join(dir, "requirements.txt"); exists(p) {
		reqs, err := manifest.ParseRequirements(p)
		if err != nil {
			return ParseResult{}, err
		}
		if m == nil {
			m = reqs
		} else {
			m.Merge(reqs)
		}
	}
	for _, name := range []string{"requirements-dev.txt", "dev-requirements.txt", "requirements-test.txt"} {
		p := filepath.Join(dir, name)
		if !exists(p) {
			continue
		}
		reqs, err := manifest.ParseRequirements(p)
		if err != nil {
			return ParseResult{}, err
		}
		if m == nil {
			m = manifest.New()
		}
		for pkg, constraint := range reqs.Dependencies {
			m.DevDependencies[pkg] = constraint
		}
	}

	if m == nil {
		return ParseResult{}, nil
	}
	return ParseResult{Found: true, Manifest: m}, nil
}

func (a *pipAdapter) InstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	args := []string{"python3", "-m", "pip", "install", "--no-input"}
	if opts.Upgrade {
		args = append(args, "--upgrade")
	}
	args = append(args, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

func (a *pipAdapter) UninstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	args := append([]string{"python3", "-m", "pip", "uninstall", "--yes"}, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

func (a *pipAdapter) InstalledPackages(dir string) (ListResult, error) {
	cmd := withEnv(a.deps.commandEnv(nil), "python3 -m pip list --format=json --disable-pip-version-check")
	res, err := a.deps.Engine.Execute(cmd, Timeout(TierQuick))
	if err != nil {
		return ListResult{}, err
	}
	if res.TimedOut {
		return ListResult{}, fault.New(fault.CodeExecFailed, "pip list timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("raise BOTTLE_TIMEOUT_MULTIPLIER or check that python3 is responsive")
	}

	var pkgs []Package
	empty, err := ExtractJSON(res.Stdout, &pkgs)
	if err != nil {
		return ListResult{}, err
	}
	if empty || len(pkgs) == 0 {
		return ListResult{Empty: true}, nil
	}
	return ListResult{Packages: pkgs}, nil
}

func (a *pipAdapter) run(cmd string, pkgs []string, opts InstallOptions) (InstallResult, error) {
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
		return InstallResult{}, fault.New(fault.CodeExecFailed, "pip command timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("retry with a larger timeout tier; large installs may need the extended tier")
	}
	if res.ExitCode != 0 {
		return InstallResult{}, fault.New(fault.CodeExecFailed, "pip exited with code %d: %s", res.ExitCode, fault.Preview(res.Stderr)).
			WithSuggestion("ensure python3 and pip are installed and on PATH")
	}
	return InstallResult{Packages: pkgs, Output: res.Stdout, Duration: res.Duration}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
