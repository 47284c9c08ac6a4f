package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"jobmate/harvester-service/internal/model"
)

// SQLite implements Store on a database/sql handle opened with the
// modernc.org/sqlite driver.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Write(ctx context.Context, p model.RunProgress) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scraper_status (platform, total, "current", successful, failed, status, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (platform) DO UPDATE SET
		   total        = excluded.total,
		   "current"    = excluded."current",
		   successful   = excluded.successful,
		   failed       = excluded.failed,
		   status       = excluded.status,
		   last_updated = excluded.last_updated`,
		p.Platform, p.Total, p.Current, p.Successful, p.Failed, string(p.Status), p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("write progress %s: %w", p.Platform, err)
	}
	return nil
}

func (s *SQLite) SetProcessHandle(ctx context.Context, platform string, pid int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scraper_status SET process_id = ? WHERE platform = ?`, pid, platform)
	if err != nil {
		return fmt.Errorf("set process handle %s: %w", platform, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set process handle %s: %w", platform, err)
	}
	if n == 0 {
		return fmt.Errorf("progress row %s: %w", platform, ErrNotFound)
	}
	return nil
}

func (s *SQLite) SetStatus(ctx context.Context, status model.RunStatus, platform string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE scraper_status SET status = ? WHERE platform = ?`, string(status), platform); err != nil {
		return fmt.Errorf("set status %s: %w", platform, err)
	}
	return nil
}

func (s *SQLite) ListAll(ctx context.Context) ([]model.RunProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+progressColumns+` FROM scraper_status ORDER BY platform`)
	if err != nil {
		return nil, fmt.Errorf("list progress query: %w", err)
	}
	defer rows.Close()

	out := make([]model.RunProgress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("list progress scan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, platform string) (*model.RunProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM scraper_status WHERE platform = ?`, platform)
	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress row %s: %w", platform, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress %s: %w", platform, err)
	}
	return p, nil
}

func (s *SQLite) Save(ctx context.Context, r model.JobRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobArgs(r)...,
	)
	if isSQLiteDuplicate(err) {
		return fmt.Errorf("job %d: %w", r.JobID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert job %d: %w", r.JobID, err)
	}
	return nil
}

func (s *SQLite) Query(ctx context.Context, limit int) ([]model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, jobid DESC LIMIT ?`, queryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	out := make([]model.JobRecord, 0)
	for rows.Next() {
		r, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("query jobs scan: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func isSQLiteDuplicate(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
