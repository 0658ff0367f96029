package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	"github.com/rs/xid"
	"github.com/samber/lo"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/transport/bot/view"
	"tg_exchange/pkg/errcodes"
	"tg_exchange/pkg/logx"
)

// OnStart показывает знакомому пользователю меню, новичку выдаёт капчу.
// Запись пользователя создаётся только после правильного ответа.
func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}
	userID := msg.From.ID

	if err := h.dialog.Reset(ctx, userID); err != nil {
		return err
	}

	_, err := h.users.GetByID(ctx, userID)
	if err == nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.Welcome, view.MainMenu())
	}
	if !domain.IsCode(err, errcodes.UserNotFound) {
		return err
	}

	return h.promptCaptcha(ctx, msg.Chat.ID, userID, msg.From.Username, startPayload(msg.Text))
}

// promptCaptcha начинает онбординг: username и реферальный payload
// переезжают в состояние капчи до успешного ответа.
func (h *Handler) promptCaptcha(ctx *th.Context, chatID, userID int64, username, payload string) error {
	challenge, err := h.dialog.BeginCaptcha(ctx, userID, username, payload)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(view.CaptchaPrompt, challenge.Answer)
	return h.sendHTML(ctx, chatID, text, view.CaptchaKeyboard(challenge.Options))
}

// registerUser создаёт запись пользователя после пройденной капчи.
// Для уже известного пользователя ничего не делает.
func (h *Handler) registerUser(ctx context.Context, userID int64, pending *entity.PendingState) error {
	_, err := h.users.GetByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !domain.IsCode(err, errcodes.UserNotFound) {
		return err
	}

	user := &entity.User{
		ID:               userID,
		ReferralID:       xid.New().String(),
		RegistrationDate: time.Now(),
	}
	if pending != nil {
		user.Username = pending.Username
		if pending.ReferralPayload != "" {
			h.attachReferral(ctx, user, pending.ReferralPayload)
		}
	}

	return h.users.Save(ctx, user)
}

func (h *Handler) OnBuy(ctx *th.Context, msg telego.Message) error {
	return h.startDealFlow(ctx, msg, entity.DealTypeBuy)
}

func (h *Handler) OnSell(ctx *th.Context, msg telego.Message) error {
	return h.startDealFlow(ctx, msg, entity.DealTypeSell)
}

func (h *Handler) startDealFlow(ctx *th.Context, msg telego.Message, dealType entity.DealType) error {
	if msg.From == nil {
		return nil
	}

	if err := h.dialog.Reset(ctx, msg.From.ID); err != nil {
		return err
	}

	if _, err := h.users.GetByID(ctx, msg.From.ID); err != nil {
		if domain.IsCode(err, errcodes.UserNotFound) {
			return h.promptCaptcha(ctx, msg.Chat.ID, msg.From.ID, msg.From.Username, "")
		}
		return err
	}

	text := view.ChooseCurrencyBuy
	if dealType == entity.DealTypeSell {
		text = view.ChooseCurrencySell
	}

	return h.sendHTML(ctx, msg.Chat.ID, text, view.CurrencyKeyboard(dealType))
}

func (h *Handler) OnProfile(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}

	if err := h.dialog.Reset(ctx, msg.From.ID); err != nil {
		return err
	}

	text, err := h.profileText(ctx, msg.From.ID)
	if domain.IsCode(err, errcodes.UserNotFound) {
		return h.promptCaptcha(ctx, msg.Chat.ID, msg.From.ID, msg.From.Username, "")
	}
	if err != nil {
		return err
	}

	return h.sendHTML(ctx, msg.Chat.ID, text, view.ProfileKeyboard())
}

func (h *Handler) OnSupport(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}
	userID := msg.From.ID

	if err := h.dialog.Reset(ctx, userID); err != nil {
		return err
	}

	if _, err := h.users.GetByID(ctx, userID); err != nil {
		if domain.IsCode(err, errcodes.UserNotFound) {
			return h.promptCaptcha(ctx, msg.Chat.ID, userID, msg.From.Username, "")
		}
		return err
	}

	if err := h.dialog.Set(ctx, &entity.PendingState{
		UserID: userID,
		Kind:   entity.PendingSupportText,
	}); err != nil {
		return err
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.SupportPrompt, nil)
}

func (h *Handler) profileText(ctx *th.Context, userID int64) (string, error) {
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	deals, err := h.dealRepo.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	completed := lo.CountBy(deals, func(d entity.Deal) bool {
		return d.Status == entity.DealStatusCompleted
	})

	return fmt.Sprintf(view.ProfileTemplate,
		user.Balance,
		len(user.Referrals),
		completed,
		h.botName,
		user.ReferralID,
	), nil
}

// attachReferral привязывает новичка к владельцу реферального кода.
// Невалидный код молча игнорируется.
func (h *Handler) attachReferral(ctx context.Context, user *entity.User, payload string) {
	referrer, err := h.users.GetByReferralID(ctx, payload)
	if err != nil || referrer.ID == user.ID {
		return
	}

	if referrer.HasReferral(user.ID) {
		return
	}

	referrer.Referrals = append(referrer.Referrals, user.ID)
	if err = h.users.Save(ctx, referrer); err != nil {
		logger(ctx).Error("не удалось сохранить реферала",
			logx.FieldUserID, referrer.ID,
			logx.FieldError, err)
	}
}

func startPayload(text string) string {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
