//go:build unix

package proc

import (
	"os/exec"
	"syscall"
)

// Detach starts cmd in its own process group so a terminal interrupt aimed
// at jelly does not reach it. Stop is then the only way it is interrupted.
func Detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}
