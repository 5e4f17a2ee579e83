//go:build windows

package execshell

import (
	"os"
	"os/exec"
)

func shellCommand() *exec.Cmd {
	return exec.Command("cmd.exe", "/Q")
}

func setProcAttrs(cmd *exec.Cmd) {}

// Windows has no process groups in the POSIX sense; every signal degrades to
// termination of the shell itself.
func signalGroup(p *os.Process, name string, kill bool) error {
	if kill {
		return p.Kill()
	}
	return p.Signal(os.Interrupt)
}
