package execshell

import (
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// EnvMode selects how the child shell's environment is constructed.
type EnvMode int

const (
	// EnvClean builds a minimal deterministic variable set: OS-standard PATH
	// entries plus caller-supplied extras, the platform home variable, and
	// color/terminal suppression. Low-noise, reproducible command behavior.
	EnvClean EnvMode = iota
	// EnvStandard inherits the full snapshot with interactive-shell
	// artifacts removed and the same color suppression applied.
	EnvStandard
)

// Interactive prompt variables leak shell state into child output and are
// always stripped in standard mode.
var promptDenylist = map[string]bool{
	"PS1":            true,
	"PS2":            true,
	"PROMPT":         true,
	"PROMPT_COMMAND": true,
}

// Color and progress-bar suppression applied in both modes. Noisy terminal
// output confuses sentinel scanning and JSON extraction downstream.
var noiseOverrides = map[string]string{
	"TERM":        "dumb",
	"NO_COLOR":    "1",
	"CLICOLOR":    "0",
	"FORCE_COLOR": "0",
}

// BuildEnv constructs the child process environment from an explicit
// snapshot. Values that are empty after resolution are dropped rather than
// passed through as literal empty strings.
func BuildEnv(mode EnvMode, snapshot []string, extraPaths []string, overrides map[string]string) []string {
	snap := parseEnv(snapshot)

	var env map[string]string
	switch mode {
	case EnvClean:
		env = make(map[string]string)
		paths := append([]string{}, extraPaths...)
		paths = append(paths, systemPaths()...)
		env["PATH"] = strings.Join(dedupe(paths), string(filepath.ListSeparator))
		if home := snap[homeVar()]; home != "" {
			env[homeVar()] = home
		}
		// Clean mode advertises non-interactive execution; many package
		// managers disable progress bars and prompts when CI is set.
		env["CI"] = "1"
	default:
		env = make(map[string]string, len(snap))
		for k, v := range snap {
			if promptDenylist[k] {
				continue
			}
			env[k] = v
		}
		if len(extraPaths) > 0 {
			merged := append(append([]string{}, extraPaths...), filepath.SplitList(env["PATH"])...)
			env["PATH"] = strings.Join(dedupe(merged), string(filepath.ListSeparator))
		}
	}

	for k, v := range noiseOverrides {
		env[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(env, k)
			continue
		}
		env[k] = v
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		if k == "" || env[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func parseEnv(entries []string) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if i := strings.IndexByte(e, '='); i > 0 {
			m[e[:i]] = e[i+1:]
		}
	}
	return m
}

func homeVar() string {
	if runtime.GOOS == "windows" {
		return "USERPROFILE"
	}
	return "HOME"
}

func systemPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{`C:\Windows\System32`, `C:\Windows`}
	}
	return []string{"/usr/local/bin", "/usr/bin", "/bin", "/usr/sbin", "/sbin"}
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
