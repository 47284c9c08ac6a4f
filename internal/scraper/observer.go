package scraper

import (
	"context"
	"time"

	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
)

// ItemOutcome classifies one processed posting.
type ItemOutcome int

const (
	ItemSucceeded ItemOutcome = iota
	ItemFailed
	ItemSkipped
)

func (o ItemOutcome) String() string {
	switch o {
	case ItemSucceeded:
		return "succeeded"
	case ItemFailed:
		return "failed"
	case ItemSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// RunInfo identifies a run to observers.
type RunInfo struct {
	RunID     string
	Platform  string
	StartedAt time.Time
	Test      bool
}

// ItemResult is the outcome of one posting, 1-indexed.
type ItemResult struct {
	Index   int
	Posting model.Posting
	Outcome ItemOutcome
	Record  *model.JobRecord
	Err     error
}

// Observer is notified at run start, after every item and at run end.
// Implementations must not block the run for long; failures are theirs to
// log.
type Observer interface {
	RunStarted(ctx context.Context, run RunInfo)
	ItemFinished(ctx context.Context, run RunInfo, item ItemResult, progress model.RunProgress)
	RunFinished(ctx context.Context, run RunInfo, progress model.RunProgress, err error)
}

// LogObserver writes the run's lifecycle to a structured logger.
type LogObserver struct {
	log *logger.Logger
}

func NewLogObserver(log *logger.Logger) *LogObserver {
	return &LogObserver{log: log.With("component", "Runner")}
}

func (o *LogObserver) RunStarted(_ context.Context, run RunInfo) {
	o.log.Info("run started", "run_id", run.RunID, "platform", run.Platform, "test", run.Test)
}

func (o *LogObserver) ItemFinished(_ context.Context, run RunInfo, item ItemResult, p model.RunProgress) {
	kv := []interface{}{
		"run_id", run.RunID,
		"platform", run.Platform,
		"item", item.Index,
		"total", p.Total,
		"url", item.Posting.URL,
		"outcome", item.Outcome.String(),
	}
	switch item.Outcome {
	case ItemFailed:
		o.log.Warn("item failed", append(kv, "error", item.Err)...)
	case ItemSkipped:
		o.log.Info("item skipped, no title extracted", kv...)
	default:
		if item.Record != nil {
			kv = append(kv, "job_id", item.Record.JobID, "position", item.Record.Position)
		}
		o.log.Debug("item processed", kv...)
	}
}

func (o *LogObserver) RunFinished(_ context.Context, run RunInfo, p model.RunProgress, err error) {
	kv := []interface{}{
		"run_id", run.RunID,
		"platform", run.Platform,
		"status", p.Status,
		"total", p.Total,
		"current", p.Current,
		"successful", p.Successful,
		"failed", p.Failed,
		"elapsed", time.Since(run.StartedAt).Round(time.Millisecond).String(),
	}
	if err != nil {
		o.log.Error("run finished with error", append(kv, "error", err)...)
		return
	}
	o.log.Info("run finished", kv...)
}
