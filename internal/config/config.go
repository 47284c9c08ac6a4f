// Package config loads and validates environment variables at startup.
// Fail-fast: a malformed or missing required variable is an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jobmate/harvester-service/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	DefaultSourcesPath = "configs/sources.yaml"
)

// Config holds all runtime configuration for the harvester service.
type Config struct {
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string
	RedisURL      string // optional; empty disables event publishing

	Port     string
	GRPCPort string
	LogMode  string

	HarvesterBin   string // executable re-run for each harvest; empty = self
	RunInitTimeout time.Duration

	FetchTimeout    time.Duration
	FetchRatePerSec float64
	BrowserFetch    bool

	TelegramToken  string
	TelegramChatID int64

	Attribution string // jobscraper column value

	SourcesPath string
	Sources     []Source
}

// Source is one catalog entry. Schedule is a cron spec; entries without one
// are only started on demand.
type Source struct {
	model.RunConfig `yaml:",inline"`
	Schedule        string `yaml:"schedule"`
}

type catalog struct {
	Sources []Source `yaml:"sources"`
}

// Load reads .env, the environment and the source catalog.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StorageDriver: strings.ToLower(envOr("STORAGE_DRIVER", DriverSQLite)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    envOr("SQLITE_PATH", "harvester.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		Port:          envOr("SUPERVISOR_PORT", "8083"),
		GRPCPort:      envOr("SUPERVISOR_GRPC_PORT", "9093"),
		LogMode:       envOr("LOG_MODE", "development"),
		HarvesterBin:  os.Getenv("HARVESTER_BIN"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Attribution:   os.Getenv("SCRAPER_ATTRIBUTION"),
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be postgres, sqlite or memory, got %q", cfg.StorageDriver)
	}

	var err error
	if cfg.RunInitTimeout, err = envDuration("RUN_INIT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = envDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if s := os.Getenv("FETCH_RATE_PER_SEC"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("FETCH_RATE_PER_SEC must be a non-negative number, got %q", s)
		}
		cfg.FetchRatePerSec = v
	}
	if s := os.Getenv("BROWSER_FETCH"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("BROWSER_FETCH must be a boolean, got %q", s)
		}
		cfg.BrowserFetch = v
	}
	if s := os.Getenv("TELEGRAM_CHAT_ID"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", s, err)
		}
		cfg.TelegramChatID = id
	}

	cfg.SourcesPath = os.Getenv("HARVESTER_SOURCES")
	explicit := cfg.SourcesPath != ""
	if !explicit {
		cfg.SourcesPath = DefaultSourcesPath
	}
	cfg.Sources, err = LoadSources(cfg.SourcesPath)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// TelegramEnabled reports whether run summaries should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// LoadSources parses the YAML catalog at path.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources %s: %w", path, err)
	}
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse sources %s: %w", path, err)
	}
	for i, s := range c.Sources {
		if strings.TrimSpace(s.SourceURL) == "" {
			return nil, fmt.Errorf("sources %s: entry %d has no url", path, i)
		}
	}
	return c.Sources, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, s)
	}
	return d, nil
}
