// Package events fans run progress out over Redis pub/sub so dashboards can
// follow a run without polling the progress table.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

const (
	ChannelRunProgress = "EVENT_RUN_PROGRESS"

	TypeRunStarted  = "RUN_STARTED"
	TypeRunProgress = "RUN_PROGRESS"
	TypeRunFinished = "RUN_FINISHED"
)

// Publisher is the subset of *redis.Client the observer needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Event is the JSON payload published on ChannelRunProgress.
type Event struct {
	Type       string          `json:"type"`
	RunID      string          `json:"runId"`
	Platform   string          `json:"platform"`
	Status     model.RunStatus `json:"status,omitempty"`
	Total      int             `json:"total"`
	Current    int             `json:"current"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Item       string          `json:"item,omitempty"`
	Outcome    string          `json:"outcome,omitempty"`
	Error      string          `json:"error,omitempty"`
	At         string          `json:"at"`
}

// RedisObserver publishes one event per run start, item and run end.
// Publish failures are logged and never affect the run.
type RedisObserver struct {
	pub   Publisher
	log   *logger.Logger
	clock func() time.Time
}

func NewRedisObserver(pub Publisher, log *logger.Logger) *RedisObserver {
	return &RedisObserver{pub: pub, log: log.With("component", "Events"), clock: time.Now}
}

func (o *RedisObserver) RunStarted(ctx context.Context, run scraper.RunInfo) {
	o.publish(ctx, Event{
		Type:     TypeRunStarted,
		RunID:    run.RunID,
		Platform: run.Platform,
		Status:   model.StatusRunning,
	})
}

func (o *RedisObserver) ItemFinished(ctx context.Context, run scraper.RunInfo, item scraper.ItemResult, p model.RunProgress) {
	ev := progressEvent(TypeRunProgress, run, p)
	ev.Item = item.Posting.URL
	ev.Outcome = item.Outcome.String()
	if item.Err != nil {
		ev.Error = item.Err.Error()
	}
	o.publish(ctx, ev)
}

func (o *RedisObserver) RunFinished(ctx context.Context, run scraper.RunInfo, p model.RunProgress, err error) {
	ev := progressEvent(TypeRunFinished, run, p)
	if err != nil {
		ev.Error = err.Error()
	}
	o.publish(ctx, ev)
}

func progressEvent(typ string, run scraper.RunInfo, p model.RunProgress) Event {
	return Event{
		Type:       typ,
		RunID:      run.RunID,
		Platform:   run.Platform,
		Status:     p.Status,
		Total:      p.Total,
		Current:    p.Current,
		Successful: p.Successful,
		Failed:     p.Failed,
	}
}

func (o *RedisObserver) publish(ctx context.Context, ev Event) {
	ev.At = model.Timestamp(o.clock())
	payload, err := json.Marshal(ev)
	if err != nil {
		o.log.Warn("marshal run event failed", "type", ev.Type, "error", err)
		return
	}
	if err := o.pub.Publish(ctx, ChannelRunProgress, payload).Err(); err != nil {
		o.log.Warn("publish "+ChannelRunProgress+" failed", "type", ev.Type, "platform", ev.Platform, "error", err)
	}
}
