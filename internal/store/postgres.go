package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/harvester-service/internal/model"
)

const pgUniqueViolation = "23505"

// Postgres implements Store on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

// ─── Progress ────────────────────────────────────────────────────────────────

func (s *Postgres) Write(ctx context.Context, p model.RunProgress) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scraper_status (platform, total, "current", successful, failed, status, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (platform) DO UPDATE SET
		   total        = EXCLUDED.total,
		   "current"    = EXCLUDED."current",
		   successful   = EXCLUDED.successful,
		   failed       = EXCLUDED.failed,
		   status       = EXCLUDED.status,
		   last_updated = EXCLUDED.last_updated`,
		p.Platform, p.Total, p.Current, p.Successful, p.Failed, string(p.Status), p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("write progress %s: %w", p.Platform, err)
	}
	return nil
}

func (s *Postgres) SetProcessHandle(ctx context.Context, platform string, pid int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scraper_status SET process_id = $1 WHERE platform = $2`, pid, platform)
	if err != nil {
		return fmt.Errorf("set process handle %s: %w", platform, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("progress row %s: %w", platform, ErrNotFound)
	}
	return nil
}

func (s *Postgres) SetStatus(ctx context.Context, status model.RunStatus, platform string) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE scraper_status SET status = $1 WHERE platform = $2`, string(status), platform); err != nil {
		return fmt.Errorf("set status %s: %w", platform, err)
	}
	return nil
}

func (s *Postgres) ListAll(ctx context.Context) ([]model.RunProgress, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+progressColumns+` FROM scraper_status ORDER BY platform`)
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

func (s *Postgres) Get(ctx context.Context, platform string) (*model.RunProgress, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM scraper_status WHERE platform = $1`, platform)
	p, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("progress row %s: %w", platform, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress %s: %w", platform, err)
	}
	return p, nil
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

func (s *Postgres) Save(ctx context.Context, r model.JobRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		jobArgs(r)...,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("job %d: %w", r.JobID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert job %d: %w", r.JobID, err)
	}
	return nil
}

func (s *Postgres) Query(ctx context.Context, limit int) ([]model.JobRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, jobid DESC LIMIT $1`, queryLimit(limit))
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

// ─── Scanning (shared with the sqlite backend) ──────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(row scanner) (*model.RunProgress, error) {
	var (
		p      model.RunProgress
		status string
	)
	if err := row.Scan(&p.ID, &p.Platform, &p.Total, &p.Current, &p.Successful, &p.Failed,
		&status, &p.LastUpdated, &p.ProcessID); err != nil {
		return nil, err
	}
	p.Status = model.RunStatus(status)
	return &p, nil
}

func scanJob(row scanner) (*model.JobRecord, error) {
	var r model.JobRecord
	if err := row.Scan(
		&r.JobID, &r.CompanyID, &r.Position, &r.Description, &r.Qualifications,
		&r.Experience, &r.Pattern, &r.Salary, &r.Niche, &r.Country, &r.Address,
		&r.Status, &r.SourceURL, &r.EditPin, &r.Scraper,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func jobArgs(r model.JobRecord) []any {
	return []any{
		r.JobID, r.CompanyID, r.Position, r.Description, r.Qualifications,
		r.Experience, r.Pattern, r.Salary, r.Niche, r.Country, r.Address,
		r.Status, r.SourceURL, r.EditPin, r.Scraper,
	}
}
