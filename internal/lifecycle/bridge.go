// Package lifecycle starts harvest runs as separate OS processes and stops
// them, reconciling the outcome with the progress row.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
)

const (
	DefaultInitTimeout = 5 * time.Second
	pollInterval       = 100 * time.Millisecond
	reapTimeout        = 5 * time.Second
)

var (
	// ErrInitTimeout is returned when the child never wrote its progress row.
	ErrInitTimeout = errors.New("run did not initialize in time")
	// ErrExitedEarly is returned when the child exited before initializing.
	ErrExitedEarly = errors.New("run exited before initializing")
	// ErrNotRunning is returned by RequestStop for a row that is not running.
	ErrNotRunning = errors.New("run is not running")
)

// StopOutcome is the result of a hard stop. The zero value is only returned
// together with an error.
type StopOutcome int

const (
	StopStopped StopOutcome = iota + 1
	StopNotFound
	StopDenied
)

func (o StopOutcome) String() string {
	switch o {
	case StopStopped:
		return "stopped"
	case StopNotFound:
		return "not_found"
	case StopDenied:
		return "denied"
	}
	return "unknown"
}

// PlatformNamer resolves the progress-row key of a run configuration.
// *scraper.Registry implements it.
type PlatformNamer interface {
	Platform(cfg model.RunConfig) (string, error)
}

// Options configures a Bridge. Binary defaults to the running executable.
type Options struct {
	Binary      string
	Env         []string
	InitTimeout time.Duration
	Stdout      io.Writer
	Stderr      io.Writer
}

// Bridge owns the children it started and the kill path for any pid.
type Bridge struct {
	progress    store.ProgressStore
	namer       PlatformNamer
	bin         string
	env         []string
	initTimeout time.Duration
	stdout      io.Writer
	stderr      io.Writer
	kill        func(pid int) error
	now         func() time.Time
	log         *logger.Logger

	mu       sync.Mutex
	children map[int]chan struct{}
}

func New(progress store.ProgressStore, namer PlatformNamer, opts Options, log *logger.Logger) (*Bridge, error) {
	bin := opts.Binary
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		bin = exe
	}
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = DefaultInitTimeout
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{
		progress:    progress,
		namer:       namer,
		bin:         bin,
		env:         opts.Env,
		initTimeout: opts.InitTimeout,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		kill:        killProcess,
		now:         time.Now,
		log:         log.With("component", "Lifecycle"),
		children:    make(map[int]chan struct{}),
	}, nil
}

// Start launches `<binary> run <flags>` and returns its pid once the child
// has written a progress row stamped after the launch, and the pid is
// recorded on it. A row left by an earlier run of the same platform does not
// count. A pid is returned alongside ErrInitTimeout so the caller can still
// stop the child.
func (b *Bridge) Start(ctx context.Context, cfg model.RunConfig) (int, error) {
	platform, err := b.namer.Platform(cfg)
	if err != nil {
		return 0, fmt.Errorf("resolve platform: %w", err)
	}
	cfg.Name = platform

	since, err := b.launchBoundary(ctx, platform)
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(b.bin, append([]string{"run"}, Args(cfg)...)...)
	cmd.Env = append(os.Environ(), b.env...)
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr
	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start run process: %w", err)
	}
	pid := cmd.Process.Pid
	done := b.track(pid)
	go b.reap(cmd, platform, done)

	b.log.Info("run process started", "platform", platform, "pid", pid)
	if err := b.awaitInit(ctx, platform, pid, since, done); err != nil {
		return pid, err
	}
	return pid, nil
}

// launchBoundary returns the second from which a progress write belongs to
// the child about to start. last_updated has second resolution, so when the
// existing row was written in the current second the launch waits for the
// next one.
func (b *Bridge) launchBoundary(ctx context.Context, platform string) (time.Time, error) {
	since := b.now().UTC().Truncate(time.Second)
	p, err := b.progress.Get(ctx, platform)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return since, nil
	case err != nil:
		return time.Time{}, fmt.Errorf("read progress %s: %w", platform, err)
	}
	last, ok := parseTimestamp(p.LastUpdated)
	if !ok || last.Before(since) {
		return since, nil
	}
	next := last.Truncate(time.Second).Add(time.Second)
	select {
	case <-time.After(time.Until(next)):
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
	return next, nil
}

func (b *Bridge) awaitInit(ctx context.Context, platform string, pid int, since time.Time, done <-chan struct{}) error {
	deadline := time.NewTimer(b.initTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	for {
		ok, err := b.initialized(ctx, platform, since)
		if err != nil {
			return err
		}
		if ok {
			if err := b.progress.SetProcessHandle(ctx, platform, pid); err != nil {
				return fmt.Errorf("record process handle: %w", err)
			}
			return nil
		}
		select {
		case <-done:
			// the child may have written and exited between two polls
			if ok, err := b.initialized(ctx, platform, since); err == nil && ok {
				return b.progress.SetProcessHandle(ctx, platform, pid)
			}
			return ErrExitedEarly
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrInitTimeout
		case <-tick.C:
		}
	}
}

// initialized reports whether the platform row was written at or after since.
func (b *Bridge) initialized(ctx context.Context, platform string, since time.Time) (bool, error) {
	p, err := b.progress.Get(ctx, platform)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read progress %s: %w", platform, err)
	}
	last, ok := parseTimestamp(p.LastUpdated)
	return ok && !last.Before(since), nil
}

func parseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	return t, err == nil
}

// Stop kills pid without giving it a chance to react, then marks platform
// stopped. A process that is already gone leaves the status untouched.
func (b *Bridge) Stop(ctx context.Context, pid int, platform string) (StopOutcome, error) {
	if pid <= 0 {
		return StopNotFound, nil
	}
	if err := b.kill(pid); err != nil {
		if outcome, ok := classifyKillError(err); ok {
			b.log.Info("stop refused", "platform", platform, "pid", pid, "outcome", outcome.String())
			return outcome, nil
		}
		return 0, fmt.Errorf("kill %d: %w", pid, err)
	}
	b.awaitReap(pid)
	if err := b.progress.SetStatus(ctx, model.StatusStopped, platform); err != nil {
		return StopStopped, fmt.Errorf("mark %s stopped: %w", platform, err)
	}
	b.log.Info("run stopped", "platform", platform, "pid", pid)
	return StopStopped, nil
}

// RequestStop flips the row to stopped and lets the run exit between items.
func (b *Bridge) RequestStop(ctx context.Context, platform string) error {
	p, err := b.progress.Get(ctx, platform)
	if err != nil {
		return err
	}
	if p.Status != model.StatusRunning {
		return fmt.Errorf("%s is %s: %w", platform, p.Status, ErrNotRunning)
	}
	if err := b.progress.SetStatus(ctx, model.StatusStopped, platform); err != nil {
		return fmt.Errorf("request stop %s: %w", platform, err)
	}
	b.log.Info("stop requested", "platform", platform)
	return nil
}

// Wait blocks until every child started by this bridge has been reaped.
func (b *Bridge) Wait(ctx context.Context) error {
	b.mu.Lock()
	pending := make([]chan struct{}, 0, len(b.children))
	for _, done := range b.children {
		pending = append(pending, done)
	}
	b.mu.Unlock()
	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *Bridge) track(pid int) chan struct{} {
	done := make(chan struct{})
	b.mu.Lock()
	b.children[pid] = done
	b.mu.Unlock()
	return done
}

func (b *Bridge) reap(cmd *exec.Cmd, platform string, done chan struct{}) {
	err := cmd.Wait()
	pid := cmd.Process.Pid
	b.mu.Lock()
	delete(b.children, pid)
	b.mu.Unlock()
	close(done)
	if err != nil {
		b.log.Warn("run process exited", "platform", platform, "pid", pid, "error", err)
		return
	}
	b.log.Info("run process exited", "platform", platform, "pid", pid)
}

// awaitReap waits for a child of this bridge to be reaped so its pid is not
// reused before the status write. Foreign pids return immediately.
func (b *Bridge) awaitReap(pid int) {
	b.mu.Lock()
	done, ok := b.children[pid]
	b.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-done:
	case <-time.After(reapTimeout):
		b.log.Warn("killed run not reaped in time", "pid", pid)
	}
}
