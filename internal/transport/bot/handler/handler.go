package handler

import (
	"context"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_exchange/internal/domain/entity"
	dealservice "tg_exchange/internal/domain/service/deal"
	"tg_exchange/internal/domain/service/dialog"
	"tg_exchange/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByReferralID(ctx context.Context, referralID string) (*entity.User, error)
	Save(ctx context.Context, user *entity.User) error
}

type DealRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Deal, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.Deal, error)
}

type WithdrawalRepository interface {
	Save(ctx context.Context, w *entity.Withdrawal) error
}

type SettingsSource interface {
	Get(ctx context.Context) (*entity.Settings, error)
}

type PriceSource interface {
	Rate(ctx context.Context, currency entity.Currency) (rub float64, stale bool)
}

// Handler — диалоговая логика бота. Любая верхнеуровневая команда начинает
// диалог заново, свободный текст трактуется по активному pending-маркеру.
type Handler struct {
	users       UserRepository
	dealRepo    DealRepository
	withdrawals WithdrawalRepository
	settings    SettingsSource
	prices      PriceSource
	deals       *dealservice.Service
	dialog      *dialog.Machine

	botName       string
	supportChatID int64
}

func New(
	users UserRepository,
	dealRepo DealRepository,
	withdrawals WithdrawalRepository,
	settings SettingsSource,
	prices PriceSource,
	deals *dealservice.Service,
	dialogMachine *dialog.Machine,
	botName string,
	supportChatID int64,
) *Handler {
	return &Handler{
		users:         users,
		dealRepo:      dealRepo,
		withdrawals:   withdrawals,
		settings:      settings,
		prices:        prices,
		deals:         deals,
		dialog:        dialogMachine,
		botName:       botName,
		supportChatID: supportChatID,
	}
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string, keyboard *telego.InlineKeyboardMarkup) error {
	params := &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := ctx.Bot().SendMessage(ctx, params)
	return err
}

func (h *Handler) editHTML(ctx *th.Context, chatID int64, messageID int, text string, keyboard *telego.InlineKeyboardMarkup) error {
	params := &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: messageID,
		Text:      text,
		ParseMode: telego.ModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := ctx.Bot().EditMessageText(ctx, params)
	return err
}
