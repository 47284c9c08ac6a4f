package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/normalize"
	"jobmate/harvester-service/internal/store"
)

const finalWriteTimeout = 10 * time.Second

// ProgressWriter is the part of the progress store a run writes to.
type ProgressWriter interface {
	Write(ctx context.Context, p model.RunProgress) error
}

// JobSaver persists one normalized record.
type JobSaver interface {
	Save(ctx context.Context, rec model.JobRecord) error
}

// StopSignal reports whether a supervisor asked the run to stop.
type StopSignal interface {
	StopRequested(ctx context.Context, platform string) (bool, error)
}

// ProgressStopSignal reads the run's own progress row: a stopped status set by
// someone other than the run is the stop request.
type ProgressStopSignal struct {
	Store interface {
		Get(ctx context.Context, platform string) (*model.RunProgress, error)
	}
}

func (s ProgressStopSignal) StopRequested(ctx context.Context, platform string) (bool, error) {
	p, err := s.Store.Get(ctx, platform)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Status == model.StatusStopped, nil
}

// Deps are the collaborators of a Runner. Jobs may be nil when the run does
// not save; Stop and Observers are optional.
type Deps struct {
	Adapter    Adapter
	Normalizer *normalize.Normalizer
	Progress   ProgressWriter
	Jobs       JobSaver
	Stop       StopSignal
	Observers  []Observer
	Logger     *logger.Logger
	Clock      func() time.Time
}

// Runner drives one harvest run: enumerate, then fetch, normalize and save
// every posting in order, rewriting the progress row after each one.
type Runner struct {
	platform  string
	save      bool
	test      bool
	companyID int64
	deps      Deps
	log       *logger.Logger
}

func NewRunner(platform string, cfg model.RunConfig, deps Deps) *Runner {
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New("", "")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		platform:  platform,
		save:      cfg.Save,
		test:      cfg.Test,
		companyID: cfg.CompanyID,
		deps:      deps,
		log:       log.With("component", "Runner", "platform", platform),
	}
}

// Run executes the run to completion. The returned progress is what the
// final write stored. The final write happens exactly once on every exit
// path, including a panic, which is re-raised afterwards.
func (r *Runner) Run(ctx context.Context) (final model.RunProgress, err error) {
	run := RunInfo{
		RunID:     uuid.NewString(),
		Platform:  r.platform,
		StartedAt: r.deps.Clock(),
		Test:      r.test,
	}
	p := model.RunProgress{Platform: r.platform, Status: model.StatusRunning}

	defer func() {
		rec := recover()
		if rec != nil {
			p.Status = model.StatusFailed
			err = fmt.Errorf("run panicked: %v", rec)
		}
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
		defer cancel()
		if werr := r.write(wctx, &p); werr != nil {
			r.log.Error("final progress write failed", "run_id", run.RunID, "error", werr)
			if err == nil {
				err = fmt.Errorf("final progress write: %w", werr)
			}
		}
		final = p
		for _, o := range r.deps.Observers {
			o.RunFinished(wctx, run, p, err)
		}
		if rec != nil {
			panic(rec)
		}
	}()

	for _, o := range r.deps.Observers {
		o.RunStarted(ctx, run)
	}
	if err := r.write(ctx, &p); err != nil {
		p.Status = model.StatusFailed
		return p, fmt.Errorf("initial progress write: %w", err)
	}

	postings, err := r.deps.Adapter.Enumerate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			p.Status = model.StatusInterrupted
			return p, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
		p.Status = model.StatusFailed
		return p, fmt.Errorf("%w: %w", ErrEnumerate, err)
	}
	p.Total = len(postings)
	if r.stopRequested(ctx) {
		p.Status = model.StatusStopped
		return p, ErrStopped
	}
	r.checkpoint(ctx, &p)

	for i, posting := range postings {
		if ctx.Err() != nil {
			p.Status = model.StatusInterrupted
			return p, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}

		item := r.processItem(ctx, i+1, posting)
		if item.Err != nil && ctx.Err() != nil {
			// the in-flight item is lost, not counted
			p.Status = model.StatusInterrupted
			return p, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}

		p.Current = i + 1
		switch item.Outcome {
		case ItemSucceeded:
			p.Successful++
		case ItemFailed:
			p.Failed++
		}
		for _, o := range r.deps.Observers {
			o.ItemFinished(ctx, run, item, p)
		}

		if r.stopRequested(ctx) {
			p.Status = model.StatusStopped
			return p, ErrStopped
		}
		r.checkpoint(ctx, &p)
	}

	p.Status = model.StatusCompleted
	return p, nil
}

// processItem recovers every error and panic of one posting into its result.
func (r *Runner) processItem(ctx context.Context, index int, posting model.Posting) (res ItemResult) {
	res = ItemResult{Index: index, Posting: posting, Outcome: ItemFailed}
	defer func() {
		if v := recover(); v != nil {
			res.Outcome = ItemFailed
			res.Err = fmt.Errorf("panic processing %s: %v", posting.URL, v)
		}
	}()

	raw, err := r.deps.Adapter.FetchDetails(ctx, posting)
	if err != nil {
		res.Err = fmt.Errorf("fetch details: %w", err)
		return res
	}
	if raw != nil && strings.TrimSpace(raw.SourceURL) == "" {
		raw.SourceURL = posting.URL
	}

	rec := r.deps.Normalizer.Normalize(raw, r.companyID)
	res.Record = &rec
	if rec.Position == "" {
		res.Outcome = ItemSkipped
		return res
	}
	if err := Validate(rec); err != nil {
		res.Err = err
		return res
	}
	if r.save {
		if r.deps.Jobs == nil {
			res.Err = errors.New("save requested but no job store configured")
			return res
		}
		if err := r.deps.Jobs.Save(ctx, rec); err != nil {
			res.Err = fmt.Errorf("save job %d: %w", rec.JobID, err)
			return res
		}
	}
	res.Outcome = ItemSucceeded
	return res
}

// checkpoint rewrites the progress row while running. A failed write is
// logged; the next one overwrites it anyway.
func (r *Runner) checkpoint(ctx context.Context, p *model.RunProgress) {
	if err := r.write(ctx, p); err != nil {
		r.log.Warn("progress write failed", "current", p.Current, "error", err)
	}
}

func (r *Runner) stopRequested(ctx context.Context) bool {
	if r.deps.Stop == nil {
		return false
	}
	stop, err := r.deps.Stop.StopRequested(ctx, r.platform)
	if err != nil {
		r.log.Warn("stop signal check failed", "error", err)
		return false
	}
	return stop
}

func (r *Runner) write(ctx context.Context, p *model.RunProgress) error {
	p.LastUpdated = model.Timestamp(r.deps.Clock())
	return r.deps.Progress.Write(ctx, *p)
}

// FailBeforeRun records a run that could not be set up as failed, so its
// row ends in a terminal status even though Run never started. It returns
// cause, joined with the write error if the write fails too.
func FailBeforeRun(ctx context.Context, w ProgressWriter, platform string, cause error, now time.Time) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
	defer cancel()
	p := model.RunProgress{Platform: platform, Status: model.StatusFailed, LastUpdated: model.Timestamp(now)}
	if err := w.Write(wctx, p); err != nil {
		return errors.Join(cause, fmt.Errorf("record setup failure: %w", err))
	}
	return cause
}

// Validate checks what the jobs table requires of a normalized record.
func Validate(rec model.JobRecord) error {
	switch {
	case strings.TrimSpace(rec.Position) == "":
		return &ValidationError{Field: "jobposition", Reason: "is empty"}
	case strings.TrimSpace(rec.SourceURL) == "":
		return &ValidationError{Field: "scrapedsource", Reason: "is empty"}
	case rec.JobID <= 0:
		return &ValidationError{Field: "jobid", Reason: "must be positive"}
	}
	return nil
}
