package model

import "fmt"

// RunStatus values stored in scraper_status.status.
//
// Valid status graph:
//
//	running ──► completed
//	   │──────► interrupted
//	   └──────► failed
//
//	any ─────► stopped   (external signal only)
//
// completed, interrupted, failed and stopped are terminal for a run. A new
// run under the same platform name starts again at running.
type RunStatus string

const (
	StatusRunning     RunStatus = "running"
	StatusCompleted   RunStatus = "completed"
	StatusInterrupted RunStatus = "interrupted"
	StatusFailed      RunStatus = "failed"
	StatusStopped     RunStatus = "stopped"
)

// validTransitions lists every controller-internal (from → to) pair.
var validTransitions = map[RunStatus][]RunStatus{
	StatusRunning: {StatusCompleted, StatusInterrupted, StatusFailed},
}

// ParseRunStatus converts a raw string to a RunStatus, returning an error for
// unknown values.
func ParseRunStatus(s string) (RunStatus, error) {
	st := RunStatus(s)
	switch st {
	case StatusRunning, StatusCompleted, StatusInterrupted, StatusFailed, StatusStopped:
		return st, nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
// stopped is reachable from every non-stopped state because it is written
// by the supervisor, not by the run.
func IsTransitionAllowed(from, to RunStatus) bool {
	if to == StatusStopped {
		return from != StatusStopped
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true when no further run-side transition exists.
func IsTerminal(s RunStatus) bool {
	switch s {
	case StatusCompleted, StatusInterrupted, StatusFailed, StatusStopped:
		return true
	}
	return false
}
