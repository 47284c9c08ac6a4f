package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/config"
	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
)

type recordingStarter struct {
	mu      sync.Mutex
	started []model.RunConfig
	err     error
}

func (r *recordingStarter) Start(_ context.Context, cfg model.RunConfig) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, cfg)
	return 100 + len(r.started), r.err
}

type staticNamer map[string]string

func (n staticNamer) Platform(cfg model.RunConfig) (string, error) {
	if name, ok := n[cfg.SourceURL]; ok {
		return name, nil
	}
	return "", errors.New("unknown source")
}

func source(url, schedule string) config.Source {
	return config.Source{RunConfig: model.RunConfig{SourceURL: url, Save: true}, Schedule: schedule}
}

func TestFire_SkipsRunningPlatform(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Write(ctx, model.RunProgress{Platform: "Busy", Status: model.StatusRunning}))
	require.NoError(t, mem.Write(ctx, model.RunProgress{Platform: "Done", Status: model.StatusCompleted}))
	starter := &recordingStarter{}
	names := staticNamer{"https://busy": "Busy", "https://done": "Done", "https://new": "New"}
	s := New(nil, starter, names, mem, logger.Nop())

	s.fire(ctx, source("https://busy", "@hourly"))
	s.fire(ctx, source("https://done", "@hourly"))
	s.fire(ctx, source("https://new", "@hourly"))
	s.fire(ctx, source("https://unknown", "@hourly"))

	require.Len(t, starter.started, 2)
	assert.Equal(t, "Done", starter.started[0].Name)
	assert.Equal(t, "New", starter.started[1].Name)
	assert.True(t, starter.started[1].Save)
}

func TestFire_StartErrorIsLogged(t *testing.T) {
	starter := &recordingStarter{err: errors.New("exec: not found")}
	s := New(nil, starter, staticNamer{"https://x": "X"}, store.NewMemory(), nil)

	assert.NotPanics(t, func() { s.fire(context.Background(), source("https://x", "@daily")) })
	assert.Len(t, starter.started, 1)
}

func TestStart_RegistersScheduledSourcesOnly(t *testing.T) {
	sources := []config.Source{
		source("https://a", "@every 1h"),
		source("https://b", ""),
		source("https://c", "0 3 * * *"),
	}
	s := New(sources, &recordingStarter{}, staticNamer{}, store.NewMemory(), nil)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 2)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := New([]config.Source{source("https://a", "every tuesday")}, &recordingStarter{}, staticNamer{}, store.NewMemory(), nil)

	err := s.Start(context.Background())

	assert.ErrorContains(t, err, "every tuesday")
}
