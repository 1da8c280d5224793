//go:build unix

package execshell

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetachFromTerminalSignalsStartsNewProcessGroup(testInstance *testing.T) {
	process := exec.Command(testShellNameConstant)
	detachFromTerminalSignals(process)
	require.NotNil(testInstance, process.SysProcAttr)
	require.True(testInstance, process.SysProcAttr.Setpgid)
}
