package adapter

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bottlehq/bottle/internal/fault"
	"github.com/bottlehq/bottle/internal/manifest"
)

func init() {
	Register("poetry", func(deps Deps) Adapter { return &poetryAdapter{deps: deps} })
}

// poetryAdapter drives poetry. Poetry predates the [project] table and keeps
// its own [tool.poetry] dependency tables inside the shared pyproject.toml,
// so both the table and poetry.lock raise the claim; uv markers lower it.
type poetryAdapter struct {
	deps Deps
}

func (a *poetryAdapter) Name() string { return "poetry" }

func (a *poetryAdapter) DetectProject(dir string) (Detection, error) {
	d := newDetection()

	pyproject := filepath.Join(dir, "pyproject.toml")
	if exists(pyproject) {
		d.add("pyproject", signalManifest)
		d.ManifestFiles = append(d.ManifestFiles, pyproject)

		if m, err := manifest.ParsePyproject(pyproject); err == nil {
			if _, ok := m.Metadata["tool.poetry"]; ok {
				d.add("tool_poetry_table", signalToolConfig)
			}
			if _, ok := m.Metadata["tool.uv"]; ok {
				d.penalize("competing_uv_table", competingPenalty)
			}
		}
	}

	if lock := filepath.Join(dir, "poetry.lock"); exists(lock) {
		d.add("poetry_lock", signalLock)
		d.LockFiles = append(d.LockFiles, lock)
	}
	if exists(filepath.Join(dir, "uv.lock")) {
		d.penalize("competing_uv_lock", competingPenalty)
	}

	d.clamp()
	return d, nil
}

func (a *poetryAdapter) ParseManifest(dir string) (ParseResult, error) {
	pyproject := filepath.Join(dir, "pyproject.toml")
	if !exists(pyproject) {
		return ParseResult{}, nil
	}
	m, err := manifest.ParsePyproject(pyproject)
	if err != nil {
		return ParseResult{}, err
	}

	if lock := filepath.Join(dir, "poetry.lock"); exists(lock) {
		pins, err := manifest.ParsePoetryLock(lock)
		if err != nil {
			return ParseResult{}, err
		}
		m.ApplyLock(pins)
	}
	return ParseResult{Found: true, Manifest: m}, nil
}

func (a *poetryAdapter) InstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	// Upgrading an already-declared package is `poetry update`, not `add`.
	args := []string{"poetry", "add"}
	if opts.Upgrade {
		args = []string{"poetry", "update"}
	} else if opts.Dev {
		args = append(args, "--group", "dev")
	}
	args = append(args, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

func (a *poetryAdapter) UninstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	args := []string{"poetry", "remove"}
	if opts.Dev {
		args = append(args, "--group", "dev")
	}
	args = append(args, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

func (a *poetryAdapter) InstalledPackages(dir string) (ListResult, error) {
	// poetry show has no JSON output; pip inside the managed venv does.
	cmd := withEnv(a.deps.commandEnv(nil), "poetry run pip list --format=json --disable-pip-version-check")
	res, err := a.deps.Engine.Execute(cmd, Timeout(TierQuick))
	if err != nil {
		return ListResult{}, err
	}
	if res.TimedOut {
		return ListResult{}, fault.New(fault.CodeExecFailed, "poetry run pip list timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("raise BOTTLE_TIMEOUT_MULTIPLIER or check that poetry is responsive")
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

func (a *poetryAdapter) run(cmd string, pkgs []string, opts InstallOptions) (InstallResult, error) {
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
		return InstallResult{}, fault.New(fault.CodeExecFailed, "poetry command timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("retry with a larger timeout tier; lock resolution can be slow on first run")
	}
	if res.ExitCode != 0 {
		return InstallResult{}, fault.New(fault.CodeExecFailed, "poetry exited with code %d: %s", res.ExitCode, fault.Preview(res.Stderr)).
			WithSuggestion("ensure poetry is installed and on PATH")
	}
	return InstallResult{Packages: pkgs, Output: res.Stdout, Duration: res.Duration}, nil
}
