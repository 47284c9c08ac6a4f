//go:build unix

package lifecycle

import (
	"errors"
	"os/exec"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcess kills the process group led by pid so browser helpers die with
// the run, falling back to the bare pid for processes that lead no group.
func killProcess(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		err = syscall.Kill(pid, syscall.SIGKILL)
	}
	return err
}

func classifyKillError(err error) (StopOutcome, bool) {
	switch {
	case errors.Is(err, syscall.ESRCH):
		return StopNotFound, true
	case errors.Is(err, syscall.EPERM):
		return StopDenied, true
	}
	return 0, false
}
