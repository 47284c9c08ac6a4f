// Package scheduler wires up the cron jobs that periodically start harvest
// runs for every catalog source that carries a schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"jobmate/harvester-service/internal/config"
	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
)

// Starter launches one run; *lifecycle.Bridge implements it.
type Starter interface {
	Start(ctx context.Context, cfg model.RunConfig) (int, error)
}

// PlatformNamer resolves the progress-row key of a source.
type PlatformNamer interface {
	Platform(cfg model.RunConfig) (string, error)
}

// ProgressReader is the part of the progress store the scheduler reads.
type ProgressReader interface {
	Get(ctx context.Context, platform string) (*model.RunProgress, error)
}

// Scheduler wraps robfig/cron and starts one run per tick and source.
type Scheduler struct {
	cron     *cron.Cron
	sources  []config.Source
	starter  Starter
	namer    PlatformNamer
	progress ProgressReader
	log      *logger.Logger
}

func New(sources []config.Source, starter Starter, namer PlatformNamer, progress ProgressReader, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "Scheduler")
	cl := cronLogger{log}
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		sources:  sources,
		starter:  starter,
		namer:    namer,
		progress: progress,
		log:      log,
	}
}

// Start registers every scheduled source and starts the cron loop. It fails
// before starting anything if one schedule does not parse.
func (s *Scheduler) Start(ctx context.Context) error {
	n := 0
	for _, src := range s.sources {
		if src.Schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(src.Schedule, func() { s.fire(ctx, src) }); err != nil {
			return fmt.Errorf("schedule %q for %s: %w", src.Schedule, src.SourceURL, err)
		}
		n++
	}
	s.cron.Start()
	s.log.Info("cron started", "scheduled_sources", n)
	return nil
}

// Stop halts the cron loop and waits for a firing job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

// fire starts src unless its platform row is still running.
func (s *Scheduler) fire(ctx context.Context, src config.Source) {
	platform, err := s.namer.Platform(src.RunConfig)
	if err != nil {
		s.log.Error("resolve platform failed", "url", src.SourceURL, "error", err)
		return
	}
	p, err := s.progress.Get(ctx, platform)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		s.log.Error("read progress failed", "platform", platform, "error", err)
		return
	case p.Status == model.StatusRunning:
		s.log.Info("previous run still running, skipping", "platform", platform)
		return
	}

	cfg := src.RunConfig
	cfg.Name = platform
	pid, err := s.starter.Start(ctx, cfg)
	if err != nil {
		s.log.Error("scheduled start failed", "platform", platform, "pid", pid, "error", err)
		return
	}
	s.log.Info("scheduled run started", "platform", platform, "pid", pid)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
