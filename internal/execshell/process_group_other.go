//go:build !unix

package execshell

import "os/exec"

func detachFromTerminalSignals(*exec.Cmd) {}
