//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Isolate places cmd in a new process group whose ID equals its PID.
func Isolate(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillGroup sends SIGKILL to the whole process group led by pid.
// soffice forks a worker (soffice.bin) that outlives a plain kill of the parent.
func KillGroup(pid int) error {
	if pid <= 0 {
		return syscall.EINVAL
	}
	return syscall.Kill(-pid, syscall.SIGKILL)
}
