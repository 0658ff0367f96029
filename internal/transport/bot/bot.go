package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_exchange/internal/config"
	"tg_exchange/internal/transport/bot/handler"
	"tg_exchange/internal/transport/bot/middleware"
	"tg_exchange/pkg/contextx"
	"tg_exchange/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault

// Bot принимает апдейты телеграма long polling-ом и ведёт диалоги.
type Bot struct {
	bot            *telego.Bot
	botHandler     *th.BotHandler
	commandHandler *handler.Handler
	users          middleware.UserSource
	timeout        int
}

func New(
	cfg config.Telegram,
	tgBot *telego.Bot,
	commandHandler *handler.Handler,
	users middleware.UserSource,
) *Bot {
	return &Bot{
		bot:            tgBot,
		commandHandler: commandHandler,
		users:          users,
		timeout:        cfg.LongPollTimeout,
	}
}

func (b *Bot) Name() string { return "telegram-bot" }

// Run блокируется до отмены контекста.
func (b *Bot) Run(ctx context.Context) error {
	updates, err := b.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.timeout,
	})
	if err != nil {
		return fmt.Errorf("bot.UpdatesViaLongPolling: %w", err)
	}

	botHandler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		return fmt.Errorf("th.NewBotHandler: %w", err)
	}
	b.botHandler = botHandler

	botHandler.Use(middleware.NotBlocked(b.users))
	b.commandHandler.RegisterRoutes(botHandler)

	go func() {
		<-ctx.Done()
		if err := botHandler.Stop(); err != nil {
			logger(ctx).Error("не удалось остановить обработчик бота", logx.FieldError, err)
		}
	}()

	if err = botHandler.Start(); err != nil {
		return fmt.Errorf("botHandler.Start: %w", err)
	}

	return ctx.Err()
}
