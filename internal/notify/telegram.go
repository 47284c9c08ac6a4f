// Package notify posts a run summary to a Telegram chat when a run ends.
package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

// Sender is the subset of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot connects to the Bot API with token.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return bot, nil
}

// TelegramObserver only speaks at run end; per-item chatter stays in logs.
type TelegramObserver struct {
	sender Sender
	chatID int64
	log    *logger.Logger
}

func NewTelegramObserver(sender Sender, chatID int64, log *logger.Logger) *TelegramObserver {
	return &TelegramObserver{sender: sender, chatID: chatID, log: log.With("component", "Notify")}
}

func (o *TelegramObserver) RunStarted(context.Context, scraper.RunInfo) {}

func (o *TelegramObserver) ItemFinished(context.Context, scraper.RunInfo, scraper.ItemResult, model.RunProgress) {
}

func (o *TelegramObserver) RunFinished(_ context.Context, run scraper.RunInfo, p model.RunProgress, err error) {
	msg := tgbotapi.NewMessage(o.chatID, Summary(run, p, err))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, serr := o.sender.Send(msg); serr != nil {
		o.log.Warn("send run summary failed", "platform", run.Platform, "error", serr)
	}
}

// Summary renders the HTML message body for a finished run.
func Summary(run scraper.RunInfo, p model.RunProgress, err error) string {
	icon := "✅"
	switch p.Status {
	case model.StatusFailed:
		icon = "❌"
	case model.StatusInterrupted, model.StatusStopped:
		icon = "⏹"
	}
	text := fmt.Sprintf(
		"%s <b>%s</b> %s\n"+
			"📄 %d/%d processed\n"+
			"👍 %d saved · 👎 %d failed",
		icon, html.EscapeString(run.Platform), p.Status,
		p.Current, p.Total,
		p.Successful, p.Failed,
	)
	if !run.StartedAt.IsZero() {
		text += fmt.Sprintf("\n⏱ %s", time.Since(run.StartedAt).Round(time.Second))
	}
	if run.Test {
		text += "\n🧪 test run"
	}
	if err != nil {
		text += "\n⚠️ " + html.EscapeString(err.Error())
	}
	return text
}
