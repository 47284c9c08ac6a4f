// Package supervisor implements the supervisor-facing operations shared by
// the HTTP and gRPC transports: list runs, start, stop, inspect jobs.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"jobmate/harvester-service/internal/config"
	"jobmate/harvester-service/internal/lifecycle"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
)

var (
	// ErrAlreadyRunning is returned when the platform row is still running.
	ErrAlreadyRunning = errors.New("run already in progress")
	// ErrNotStoppable is returned for a hard stop without a live process.
	ErrNotStoppable = errors.New("run is not stoppable")
)

// ValidationError is returned for malformed requests.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Controller starts and stops run processes; *lifecycle.Bridge implements it.
type Controller interface {
	Start(ctx context.Context, cfg model.RunConfig) (int, error)
	Stop(ctx context.Context, pid int, platform string) (lifecycle.StopOutcome, error)
	RequestStop(ctx context.Context, platform string) error
}

// Run is the supervisor view of one progress row.
type Run struct {
	model.RunProgress
	Stoppable  bool    `json:"stoppable"`
	Completion float64 `json:"completion"`
}

// Started identifies a launched run.
type Started struct {
	Platform string `json:"platform"`
	PID      int    `json:"pid"`
}

type Service struct {
	progress store.ProgressStore
	jobs     store.JobStore
	ctl      Controller
	namer    lifecycle.PlatformNamer
	sources  []config.Source
}

func NewService(progress store.ProgressStore, jobs store.JobStore, ctl Controller, namer lifecycle.PlatformNamer, sources []config.Source) *Service {
	return &Service{progress: progress, jobs: jobs, ctl: ctl, namer: namer, sources: sources}
}

// ListRuns returns every progress row, optionally only those with status.
func (s *Service) ListRuns(ctx context.Context, status string) ([]Run, error) {
	var want model.RunStatus
	if status != "" {
		st, err := model.ParseRunStatus(strings.ToLower(status))
		if err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
		want = st
	}
	rows, err := s.progress.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(rows))
	for _, p := range rows {
		if want != "" && p.Status != want {
			continue
		}
		runs = append(runs, view(p))
	}
	return runs, nil
}

// GetRun returns one row or store.ErrNotFound.
func (s *Service) GetRun(ctx context.Context, platform string) (Run, error) {
	p, err := s.progress.Get(ctx, platform)
	if err != nil {
		return Run{}, err
	}
	return view(*p), nil
}

func view(p model.RunProgress) Run {
	return Run{RunProgress: p, Stoppable: p.Stoppable(), Completion: p.Completion()}
}

// StartRun launches cfg unless a run under the same platform is running.
func (s *Service) StartRun(ctx context.Context, cfg model.RunConfig) (Started, error) {
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return Started{}, &ValidationError{Msg: "url is required"}
	}
	platform, err := s.namer.Platform(cfg)
	if err != nil {
		return Started{}, &ValidationError{Msg: err.Error()}
	}
	p, err := s.progress.Get(ctx, platform)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return Started{}, err
	case p.Status == model.StatusRunning:
		return Started{}, fmt.Errorf("%s: %w", platform, ErrAlreadyRunning)
	}
	cfg.Name = platform
	pid, err := s.ctl.Start(ctx, cfg)
	if err != nil {
		return Started{Platform: platform, PID: pid}, fmt.Errorf("start %s: %w", platform, err)
	}
	return Started{Platform: platform, PID: pid}, nil
}

// StartSource launches the catalog entry whose name or url matches key.
func (s *Service) StartSource(ctx context.Context, key string) (Started, error) {
	for _, src := range s.sources {
		if src.Name == key || src.SourceURL == key {
			return s.StartRun(ctx, src.RunConfig)
		}
	}
	return Started{}, fmt.Errorf("source %q: %w", key, store.ErrNotFound)
}

// Sources returns the catalog sorted by name.
func (s *Service) Sources() []config.Source {
	out := append([]config.Source(nil), s.sources...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StopRun stops platform. A graceful stop only flips the status and lets the
// run exit between items; a hard stop kills the recorded process.
func (s *Service) StopRun(ctx context.Context, platform string, graceful bool) (lifecycle.StopOutcome, error) {
	p, err := s.progress.Get(ctx, platform)
	if err != nil {
		return 0, err
	}
	if graceful {
		if err := s.ctl.RequestStop(ctx, platform); err != nil {
			return 0, err
		}
		return lifecycle.StopStopped, nil
	}
	if !p.Stoppable() {
		return 0, fmt.Errorf("%s is %s with process %d: %w", platform, p.Status, p.ProcessID, ErrNotStoppable)
	}
	return s.ctl.Stop(ctx, p.ProcessID, platform)
}

// Jobs returns the most recently stored records.
func (s *Service) Jobs(ctx context.Context, limit int) ([]model.JobRecord, error) {
	if limit < 0 {
		return nil, &ValidationError{Msg: "limit must not be negative"}
	}
	return s.jobs.Query(ctx, limit)
}
