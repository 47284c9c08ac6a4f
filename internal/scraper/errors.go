package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrEnumerate wraps a failed enumeration; the run ends failed.
	ErrEnumerate = errors.New("enumerate postings")
	// ErrInterrupted is returned when the run's context is cancelled.
	ErrInterrupted = errors.New("run interrupted")
	// ErrStopped is returned when the progress row was flipped to stopped
	// by a supervisor between two items.
	ErrStopped = errors.New("run stopped by supervisor")
	// ErrInvalidRecord marks a normalized record that cannot be persisted.
	ErrInvalidRecord = errors.New("invalid job record")
	// ErrUnknownAdapter is returned by Registry.Build for an unregistered kind.
	ErrUnknownAdapter = errors.New("unknown adapter")
)

// StatusError is returned by a Fetcher for a non-2xx response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s returned %d: %s", e.URL, e.Code, body)
}

// ValidationError names the field that made a record invalid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job record: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}
