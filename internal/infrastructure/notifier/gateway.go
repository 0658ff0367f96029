package notifier

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg_exchange/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault

// Gateway — исходящие сообщения бота. Вызывающий код сам решает, глотать ли
// ошибки доставки.
type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Telegram реализует Gateway поверх telego.
type Telegram struct {
	bot *telego.Bot
}

func NewTelegram(bot *telego.Bot) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)

	if _, err := t.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("bot.SendMessage: %w", err)
	}

	return nil
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	msg := tu.Photo(tu.ID(chatID), tu.FileFromURL(photoURL)).
		WithCaption(caption).
		WithParseMode(telego.ModeHTML)

	if _, err := t.bot.SendPhoto(ctx, msg); err != nil {
		return fmt.Errorf("bot.SendPhoto: %w", err)
	}

	return nil
}

func (t *Telegram) EditCaption(ctx context.Context, chatID int64, messageID int, caption string) error {
	_, err := t.bot.EditMessageCaption(ctx, &telego.EditMessageCaptionParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Caption:   caption,
		ParseMode: telego.ModeHTML,
	})
	if err != nil {
		return fmt.Errorf("bot.EditMessageCaption: %w", err)
	}

	return nil
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	err := t.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("bot.DeleteMessage: %w", err)
	}

	return nil
}
