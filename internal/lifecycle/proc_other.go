//go:build !unix

package lifecycle

import (
	"errors"
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func killProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return os.ErrProcessDone
	}
	return p.Kill()
}

func classifyKillError(err error) (StopOutcome, bool) {
	switch {
	case errors.Is(err, os.ErrProcessDone):
		return StopNotFound, true
	case errors.Is(err, os.ErrPermission):
		return StopDenied, true
	}
	return 0, false
}
