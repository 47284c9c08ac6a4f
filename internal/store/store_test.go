package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/db"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
)

type backend struct {
	name string
	open func(t *testing.T) store.Store
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) store.Store { return store.NewMemory() }},
		{"sqlite", openSQLite},
		{"postgres", openPostgres},
	}
}

func openSQLite(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "harvester.db"))
	require.NoError(t, err)
	s := store.NewSQLite(sqlDB)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// openPostgres needs TEST_DATABASE_URL pointing at a disposable database.
func openPostgres(t *testing.T) store.Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPostgresPool(ctx, url)
	require.NoError(t, err)
	s := store.NewPostgres(pool)
	require.NoError(t, s.Migrate(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE jobs, scraper_status RESTART IDENTITY`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func progress(platform string, current int, status model.RunStatus) model.RunProgress {
	return model.RunProgress{
		Platform:    platform,
		Total:       10,
		Current:     current,
		Successful:  current,
		Status:      status,
		LastUpdated: "2026-01-02T03:04:05Z",
	}
}

func job(id int64) model.JobRecord {
	return model.JobRecord{
		JobID:          id,
		CompanyID:      3,
		Position:       "Engineer",
		Description:    "Build things",
		Qualifications: "General",
		Experience:     "2 years",
		Pattern:        "full-time",
		Salary:         "Not Disclosed",
		Niche:          "Job",
		Country:        "Kenya",
		Address:        "Same As Country",
		Status:         model.JobStatusScraped,
		SourceURL:      "https://example.com/jobs/1",
		EditPin:        model.DefaultEditPin,
		Scraper:        "harvester",
	}
}

func TestProgress_WriteIsIdempotentUpsert(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			p := progress("acme", 2, model.StatusRunning)
			require.NoError(t, s.Write(ctx, p))
			first, err := s.ListAll(ctx)
			require.NoError(t, err)

			require.NoError(t, s.Write(ctx, p))
			second, err := s.ListAll(ctx)
			require.NoError(t, err)

			require.Len(t, second, 1)
			assert.Equal(t, first, second)
			assert.Equal(t, 2, second[0].Current)
			assert.Positive(t, second[0].ID)
		})
	}
}

func TestProgress_WriteOverwritesButKeepsProcessID(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			require.NoError(t, s.Write(ctx, progress("acme", 1, model.StatusRunning)))
			require.NoError(t, s.SetProcessHandle(ctx, "acme", 4242))
			require.NoError(t, s.Write(ctx, progress("acme", 5, model.StatusCompleted)))

			got, err := s.Get(ctx, "acme")
			require.NoError(t, err)
			assert.Equal(t, 5, got.Current)
			assert.Equal(t, model.StatusCompleted, got.Status)
			assert.Equal(t, 4242, got.ProcessID)
			assert.Equal(t, "2026-01-02T03:04:05Z", got.LastUpdated)
		})
	}
}

func TestProgress_SetProcessHandleMissingRow(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			err := b.open(t).SetProcessHandle(context.Background(), "ghost", 1)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestProgress_SetStatusMissingRowIsNoop(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			require.NoError(t, s.SetStatus(ctx, model.StatusStopped, "ghost"))

			rows, err := s.ListAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, rows)

			_, err = s.Get(ctx, "ghost")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestProgress_SetStatusOnlyTouchesStatus(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			require.NoError(t, s.Write(ctx, progress("acme", 3, model.StatusRunning)))
			require.NoError(t, s.Write(ctx, progress("globex", 1, model.StatusRunning)))

			require.NoError(t, s.SetStatus(ctx, model.StatusStopped, "acme"))

			rows, err := s.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "acme", rows[0].Platform)
			assert.Equal(t, model.StatusStopped, rows[0].Status)
			assert.Equal(t, 3, rows[0].Current)
			assert.Equal(t, model.StatusRunning, rows[1].Status)
		})
	}
}

func TestJobs_SaveIsInsertOnly(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			require.NoError(t, s.Save(ctx, job(100)))
			dup := job(100)
			dup.Position = "Other"
			assert.ErrorIs(t, s.Save(ctx, dup), store.ErrDuplicate)

			got, err := s.Query(ctx, 10)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, job(100), got[0])
		})
	}
}

func TestJobs_QueryNewestFirstWithLimit(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			for id := int64(1); id <= 5; id++ {
				require.NoError(t, s.Save(ctx, job(id)))
			}

			got, err := s.Query(ctx, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, int64(5), got[0].JobID)
			assert.Equal(t, int64(4), got[1].JobID)

			all, err := s.Query(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 5)
		})
	}
}
