//go:build unix

package execshell

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func shellCommand() *exec.Cmd {
	return exec.Command("/bin/sh")
}

// setProcAttrs puts the shell in its own process group so signals reach the
// commands it spawns, not just the shell itself.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(p *os.Process, name string, kill bool) error {
	var sig syscall.Signal
	switch name {
	case "SIGINT":
		sig = syscall.SIGINT
	case "SIGTERM":
		sig = syscall.SIGTERM
	case "SIGKILL":
		sig = syscall.SIGKILL
	default:
		return fmt.Errorf("unknown signal %s", name)
	}
	// Negative pid addresses the whole process group.
	if err := syscall.Kill(-p.Pid, sig); err != nil {
		// The group may be gone while the leader lingers; fall back to the
		// process itself.
		return p.Signal(sig)
	}
	return nil
}
