//go:build unix

package execshell

import (
	"os/exec"
	"syscall"
)

// detachFromTerminalSignals starts the child in its own process group so a terminal
// interrupt reaches only the migration process, which then stops between revisions.
func detachFromTerminalSignals(process *exec.Cmd) {
	process.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
