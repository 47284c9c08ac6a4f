package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/config"
)

const catalogYAML = `
sources:
  - name: Workday-acme
    adapter: workday
    url: https://acme.wd1.myworkdayjobs.com/en-US/Careers
    company_id: 12
    save: true
    schedule: "@every 6h"
  - adapter: jsonfeed
    url: https://www.initech.com/jobs.json
    experience_fallback: general
`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"STORAGE_DRIVER", "SUPERVISOR_PORT", "SUPERVISOR_GRPC_PORT", "RUN_INIT_TIMEOUT", "HARVESTER_SOURCES", "TELEGRAM_CHAT_ID", "BROWSER_FETCH", "FETCH_RATE_PER_SEC", "FETCH_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "9093", cfg.GRPCPort)
	assert.Equal(t, 5*time.Second, cfg.RunInitTimeout)
	assert.Equal(t, config.DefaultSourcesPath, cfg.SourcesPath)
	assert.Empty(t, cfg.Sources, "missing default catalog is not an error")
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/harvester")
	t.Setenv("RUN_INIT_TIMEOUT", "8s")
	t.Setenv("FETCH_RATE_PER_SEC", "2.5")
	t.Setenv("BROWSER_FETCH", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "t0k3n")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("HARVESTER_SOURCES", writeCatalog(t, catalogYAML))

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, config.DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 8*time.Second, cfg.RunInitTimeout)
	assert.InDelta(t, 2.5, cfg.FetchRatePerSec, 1e-9)
	assert.True(t, cfg.BrowserFetch)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.True(t, cfg.TelegramEnabled())
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "Workday-acme", cfg.Sources[0].Name)
	assert.Equal(t, int64(12), cfg.Sources[0].CompanyID)
	assert.True(t, cfg.Sources[0].Save)
	assert.Equal(t, "@every 6h", cfg.Sources[0].Schedule)
	assert.Equal(t, "general", cfg.Sources[1].ExperienceFallback)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"STORAGE_DRIVER": "postgres", "DATABASE_URL": ""},
		"unknown driver":       {"STORAGE_DRIVER": "mongo"},
		"bad timeout":          {"RUN_INIT_TIMEOUT": "soon"},
		"bad chat id":          {"TELEGRAM_CHAT_ID": "chat"},
		"bad browser flag":     {"BROWSER_FETCH": "maybe"},
		"explicit missing":     {"HARVESTER_SOURCES": "/nonexistent/sources.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSources_RequiresURL(t *testing.T) {
	_, err := config.LoadSources(writeCatalog(t, "sources:\n  - name: nowhere\n"))
	assert.ErrorContains(t, err, "has no url")
}
