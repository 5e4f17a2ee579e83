package adapter

import (
	"sort"
	"strings"
)

// quoteArg single-quotes an argument for the shell. Package specifiers come
// from manifests and callers; quoting is unconditional rather than
// best-effort.
func quoteArg(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func quoteAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = quoteArg(a)
	}
	return out
}

// commandEnv merges the volume controller's mount variables with adapter and
// per-call overrides, later layers winning.
func (d Deps) commandEnv(extra map[string]string) map[string]string {
	env := make(map[string]string)
	if d.Volumes != nil {
		for k, v := range d.Volumes.MountEnvVars() {
			env[k] = v
		}
	}
	for k, v := range d.Env {
		env[k] = v
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// withEnv prefixes a shell command with variable assignments so one engine
// can serve commands with differing per-call environments. Keys are sorted
// for deterministic command lines.
func withEnv(env map[string]string, command string) string {
	if len(env) == 0 {
		return command
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		if k == "" || env[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quoteArg(env[k]))
		b.WriteByte(' ')
	}
	b.WriteString(command)
	return b.String()
}
