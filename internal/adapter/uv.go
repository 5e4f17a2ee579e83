package adapter

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bottlehq/bottle/internal/fault"
	"github.com/bottlehq/bottle/internal/manifest"
)

func init() {
	Register("uv", func(deps Deps) Adapter { return &uvAdapter{deps: deps} })
}

// uvAdapter drives the uv resolver/installer. uv projects are plain
// pyproject.toml projects, so a bare manifest scores the shared base tier;
// uv.lock or a [tool.uv] table raises the claim, a poetry lock lowers it.
type uvAdapter struct {
	deps Deps
}

func (a *uvAdapter) Name() string { return "uv" }

func (a *uvAdapter) DetectProject(dir string) (Detection, error) {
	d := newDetection()

	pyproject := filepath.Join(dir, "pyproject.toml")
	if exists(pyproject) {
		d.add("pyproject", signalManifest)
		d.ManifestFiles = append(d.ManifestFiles, pyproject)

		if m, err := manifest.ParsePyproject(pyproject); err == nil {
			if _, ok := m.Metadata["tool.uv"]; ok {
				d.add("tool_uv_table", signalToolConfig)
			}
			if ws, ok := m.Metadata["is_workspace_root"].(bool); ok && ws {
				d.add("uv_workspace", signalToolConfig)
			}
			if _, ok := m.Metadata["tool.poetry"]; ok {
				d.penalize("competing_poetry_table", competingPenalty)
			}
		}
	}

	if lock := filepath.Join(dir, "uv.lock"); exists(lock) {
		d.add("uv_lock", signalLock)
		d.LockFiles = append(d.LockFiles, lock)
	}
	if exists(filepath.Join(dir, "poetry.lock")) {
		d.penalize("competing_poetry_lock", competingPenalty)
	}

	d.clamp()
	return d, nil
}

func (a *uvAdapter) ParseManifest(dir string) (ParseResult, error) {
	pyproject := filepath.Join(dir, "pyproject.toml")
	if !exists(pyproject) {
		return ParseResult{}, nil
	}
	m, err := manifest.ParsePyproject(pyproject)
	if err != nil {
		return ParseResult{}, err
	}

	// Lock pins override the manifest's range constraints for declared
	// dependencies; the lock's transitive closure stays out of the model.
	if lock := filepath.Join(dir, "uv.lock"); exists(lock) {
		pins, err := manifest.ParseUvLock(lock)
		if err != nil {
			return ParseResult{}, err
		}
		m.ApplyLock(pins)
	}
	return ParseResult{Found: true, Manifest: m}, nil
}

func (a *uvAdapter) InstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	args := []string{"uv", "add"}
	if opts.Dev {
		args = append(args, "--dev")
	}
	if opts.Upgrade {
		args = append(args, "--upgrade")
	}
	args = append(args, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

func (a *uvAdapter) UninstallPackages(pkgs []string, opts InstallOptions) (InstallResult, error) {
	if len(pkgs) == 0 {
		return InstallResult{}, nil
	}
	args := append([]string{"uv", "remove"}, quoteAll(pkgs)...)
	return a.run(strings.Join(args, " "), pkgs, opts)
}

func (a *uvAdapter) InstalledPackages(dir string) (ListResult, error) {
	cmd := withEnv(a.deps.commandEnv(nil), "uv pip list --format=json")
	res, err := a.deps.Engine.Execute(cmd, Timeout(TierQuick))
	if err != nil {
		return ListResult{}, err
	}
	if res.TimedOut {
		return ListResult{}, fault.New(fault.CodeExecFailed, "uv pip list timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("raise BOTTLE_TIMEOUT_MULTIPLIER or check that uv is responsive")
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

func (a *uvAdapter) run(cmd string, pkgs []string, opts InstallOptions) (InstallResult, error) {
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
		return InstallResult{}, fault.New(fault.CodeExecFailed, "uv command timed out after %s", res.Duration.Round(time.Millisecond)).
			WithSuggestion("retry with a larger timeout tier; initial installs may need the extended tier")
	}
	if res.ExitCode != 0 {
		return InstallResult{}, fault.New(fault.CodeExecFailed, "uv exited with code %d: %s", res.ExitCode, fault.Preview(res.Stderr)).
			WithSuggestion("ensure uv is installed and on PATH")
	}
	return InstallResult{Packages: pkgs, Output: res.Stdout, Duration: res.Duration}, nil
}
