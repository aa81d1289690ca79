package notify

import (
	"context"
	"fmt"

	tg "github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// Telegram delivers alerts through the Bot API. Subscriber identifiers
// are Telegram chat IDs.
type Telegram struct {
	bot    *tg.Bot
	logger *zap.Logger
}

func NewTelegram(token string, logger *zap.Logger) (*Telegram, error) {
	b, err := tg.New(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Telegram{
		bot:    b,
		logger: logger.Named("telegram"),
	}, nil
}

// Notify sends one message to one chat. A blocked bot or dead chat is
// the subscriber's problem, not the engine's; the caller logs and moves
// on.
func (t *Telegram) Notify(ctx context.Context, subscriber int64, message string) error {
	_, err := t.bot.SendMessage(ctx, &tg.SendMessageParams{
		ChatID: subscriber,
		Text:   message,
	})
	if err != nil {
		return fmt.Errorf("send message to %d: %w", subscriber, err)
	}
	return nil
}
