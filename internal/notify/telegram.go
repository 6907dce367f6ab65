package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"tutormatch/internal/model"
)

// Telegram sends notifications to users who stored a Telegram chat id.
// Users without one are silently skipped.
type Telegram struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewTelegram(token string, logger *zap.Logger) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: b, logger: logger}, nil
}

func (t *Telegram) RequestMatched(ctx context.Context, user, partner *model.User, subject *model.Subject) error {
	text := fmt.Sprintf("You have been matched with %s for %s.", partner.Name, subject.Name)
	return t.send(ctx, user, text)
}

func (t *Telegram) PartnerLost(ctx context.Context, user *model.User, subject *model.Subject) error {
	text := fmt.Sprintf("Your tutoring match for %s is no longer available. The request has been marked as not matched.", subject.Name)
	return t.send(ctx, user, text)
}

func (t *Telegram) send(ctx context.Context, user *model.User, text string) error {
	if user.TelegramChatID == nil {
		return nil
	}
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.logger.Debug("Notification sent", zap.Int64("user_id", user.ID))
	return nil
}
