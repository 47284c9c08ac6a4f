// Package store persists job records and run progress rows.
package store

import (
	"context"
	"errors"

	"jobmate/harvester-service/internal/model"
)

var (
	// ErrNotFound is returned when no progress row exists for a platform.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a job id is already stored.
	ErrDuplicate = errors.New("duplicate job id")
)

// DefaultQueryLimit bounds JobStore.Query when the caller passes <= 0.
const DefaultQueryLimit = 50

// ProgressStore is the durable run-progress table, one row per platform.
type ProgressStore interface {
	// Write upserts the row for p.Platform, overwriting every mutable field
	// except the process id.
	Write(ctx context.Context, p model.RunProgress) error
	// SetProcessHandle records pid on an existing row, ErrNotFound otherwise.
	SetProcessHandle(ctx context.Context, platform string, pid int) error
	ListAll(ctx context.Context) ([]model.RunProgress, error)
	// SetStatus updates only the status; a missing row is not an error.
	SetStatus(ctx context.Context, status model.RunStatus, platform string) error
	Get(ctx context.Context, platform string) (*model.RunProgress, error)
}

// JobStore is the insert-only jobs table.
type JobStore interface {
	Save(ctx context.Context, rec model.JobRecord) error
	// Query returns the most recently stored records, newest first.
	Query(ctx context.Context, limit int) ([]model.JobRecord, error)
}

// Store bundles both tables of one backend.
type Store interface {
	ProgressStore
	JobStore
	Close() error
}

func queryLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	return limit
}
