package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.msgs = append(f.msgs, published{channel: channel, payload: message.([]byte)})
	return redis.NewIntResult(1, f.err)
}

func decode(t *testing.T, p published) Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal(p.payload, &ev))
	return ev
}

func TestRedisObserver_PublishesLifecycle(t *testing.T) {
	pub := &fakePublisher{}
	o := NewRedisObserver(pub, logger.Nop())
	o.clock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	run := scraper.RunInfo{RunID: "r-1", Platform: "Workday-acme"}
	ctx := context.Background()

	o.RunStarted(ctx, run)
	o.ItemFinished(ctx, run, scraper.ItemResult{
		Index:   1,
		Posting: model.Posting{URL: "https://x/1"},
		Outcome: scraper.ItemFailed,
		Err:     errors.New("timeout"),
	}, model.RunProgress{Total: 3, Current: 1, Failed: 1, Status: model.StatusRunning})
	o.RunFinished(ctx, run, model.RunProgress{Total: 3, Current: 3, Successful: 2, Failed: 1, Status: model.StatusCompleted}, nil)

	require.Len(t, pub.msgs, 3)
	for _, m := range pub.msgs {
		assert.Equal(t, ChannelRunProgress, m.channel)
	}

	started := decode(t, pub.msgs[0])
	assert.Equal(t, TypeRunStarted, started.Type)
	assert.Equal(t, "2026-03-01T12:00:00Z", started.At)

	item := decode(t, pub.msgs[1])
	assert.Equal(t, Event{
		Type: TypeRunProgress, RunID: "r-1", Platform: "Workday-acme", Status: model.StatusRunning,
		Total: 3, Current: 1, Failed: 1, Item: "https://x/1", Outcome: "failed", Error: "timeout",
		At: "2026-03-01T12:00:00Z",
	}, item)

	finished := decode(t, pub.msgs[2])
	assert.Equal(t, TypeRunFinished, finished.Type)
	assert.Equal(t, model.StatusCompleted, finished.Status)
	assert.Empty(t, finished.Error)
}

func TestRedisObserver_PublishFailureIsNonFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	o := NewRedisObserver(pub, logger.Nop())

	assert.NotPanics(t, func() {
		o.RunFinished(context.Background(), scraper.RunInfo{Platform: "p"}, model.RunProgress{Status: model.StatusFailed}, errors.New("enumerate"))
	})
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "enumerate", decode(t, pub.msgs[0]).Error)
}
