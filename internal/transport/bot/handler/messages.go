package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	"github.com/rs/xid"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/domain/service/pricing"
	"tg_exchange/internal/transport/bot/view"
	"tg_exchange/pkg/errcodes"
	"tg_exchange/pkg/logx"
)

// OnText разбирает свободный текст по активному pending-маркеру. Текст без
// маркера от знакомого пользователя уходит операторам, от незнакомого
// игнорируется.
func (h *Handler) OnText(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil || strings.HasPrefix(msg.Text, "/") {
		return nil
	}
	userID := msg.From.ID

	state, err := h.dialog.Pending(ctx, userID)
	if err != nil {
		return err
	}

	if !state.Active() {
		return h.handoffToSupport(ctx, msg)
	}

	switch state.Kind {
	case entity.PendingAmount:
		return h.handleAmount(ctx, msg, state)
	case entity.PendingNewWalletText:
		return h.handleNewWallet(ctx, msg, state)
	case entity.PendingSupportText:
		return h.handleSupportText(ctx, msg)
	case entity.PendingWithdrawAmount:
		return h.handleWithdrawAmount(ctx, msg, state)
	case entity.PendingWithdrawWallet:
		return h.handleWithdrawWallet(ctx, msg, state)
	case entity.PendingProfileUpdate:
		return h.handleProfileUpdate(ctx, msg)
	case entity.PendingCaptcha:
		// Капча решается кнопками, текст не принимаем.
		return nil
	}

	return nil
}

func (h *Handler) handleAmount(ctx *th.Context, msg telego.Message, state *entity.PendingState) error {
	amount, err := parseAmount(msg.Text)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.ErrInvalidAmount, nil)
	}

	user, err := h.users.GetByID(ctx, msg.From.ID)
	if err != nil {
		return err
	}

	draft, err := h.deals.CreateDraft(ctx, user, state.DealType, state.Currency, amount)
	if err != nil {
		if appErr := domain.AsAppError(err); appErr != nil &&
			(appErr.Code == errcodes.AmountOutOfBounds || appErr.Code == errcodes.InvalidAmount) {
			return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.ErrAmountOutOfRange, appErr.Message), nil)
		}
		return err
	}

	settings, err := h.settings.Get(ctx)
	if err != nil {
		return err
	}

	state.Kind = entity.PendingPriorityChoice
	state.DraftDealID = draft.ID
	state.RubAmount = draft.RubAmount
	state.CryptoAmount = draft.CryptoAmount
	state.Commission = draft.Commission
	if err = h.dialog.Set(ctx, state); err != nil {
		return err
	}

	text := fmt.Sprintf(view.QuoteTemplate,
		draft.RubAmount, draft.CryptoAmount, draft.Currency,
		draft.Commission, draft.Total, settings.PriorityPriceRub)

	return h.sendHTML(ctx, msg.Chat.ID, text, view.PriorityKeyboard(settings.PriorityPriceRub))
}

func (h *Handler) handleNewWallet(ctx *th.Context, msg telego.Message, state *entity.PendingState) error {
	wallet := strings.TrimSpace(msg.Text)
	if wallet == "" {
		return h.sendHTML(ctx, msg.Chat.ID, view.EnterNewWallet, nil)
	}

	state.Kind = entity.PendingSaveWalletDecision
	state.Wallet = wallet
	if err := h.dialog.Set(ctx, state); err != nil {
		return err
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.SaveWalletPrompt, view.SaveWalletKeyboard())
}

func (h *Handler) handleSupportText(ctx *th.Context, msg telego.Message) error {
	if err := h.forwardToSupport(ctx, msg); err != nil {
		return err
	}

	if err := h.dialog.Reset(ctx, msg.From.ID); err != nil {
		return err
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.SupportForwarded, nil)
}

func (h *Handler) handleWithdrawAmount(ctx *th.Context, msg telego.Message, state *entity.PendingState) error {
	amount, err := parseAmount(msg.Text)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.ErrInvalidAmount, nil)
	}

	user, err := h.users.GetByID(ctx, msg.From.ID)
	if err != nil {
		return err
	}

	if amount > user.Balance {
		return h.sendHTML(ctx, msg.Chat.ID, view.ErrInsufficient, nil)
	}

	btcRate, _ := h.prices.Rate(ctx, entity.CurrencyBTC)

	state.Kind = entity.PendingWithdrawWallet
	state.WithdrawCrypto = pricing.Round8(amount)
	state.WithdrawRub = pricing.Round2(amount * btcRate)
	if err = h.dialog.Set(ctx, state); err != nil {
		return err
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.WithdrawWalletPrompt, nil)
}

// handleWithdrawWallet создаёт заявку. Баланс списывается сразу, не при
// закрытии заявки оператором.
func (h *Handler) handleWithdrawWallet(ctx *th.Context, msg telego.Message, state *entity.PendingState) error {
	wallet := strings.TrimSpace(msg.Text)
	if wallet == "" {
		return h.sendHTML(ctx, msg.Chat.ID, view.WithdrawWalletPrompt, nil)
	}

	user, err := h.users.GetByID(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if state.WithdrawCrypto > user.Balance {
		return h.sendHTML(ctx, msg.Chat.ID, view.ErrInsufficient, nil)
	}

	withdrawal := &entity.Withdrawal{
		ID:            xid.New().String(),
		UserID:        user.ID,
		RubAmount:     state.WithdrawRub,
		CryptoAmount:  state.WithdrawCrypto,
		WalletAddress: wallet,
		Status:        entity.WithdrawalStatusPending,
		Timestamp:     time.Now(),
	}

	user.Balance = pricing.Round8(user.Balance - state.WithdrawCrypto)
	if err = h.users.Save(ctx, user); err != nil {
		return err
	}
	if err = h.withdrawals.Save(ctx, withdrawal); err != nil {
		return err
	}

	if err = h.dialog.Reset(ctx, user.ID); err != nil {
		return err
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.WithdrawCreated, withdrawal.CryptoAmount), nil)
}

func (h *Handler) handleProfileUpdate(ctx *th.Context, msg telego.Message) error {
	details := strings.TrimSpace(msg.Text)
	if details == "" {
		return h.sendHTML(ctx, msg.Chat.ID, view.RequisitesPrompt, nil)
	}

	user, err := h.users.GetByID(ctx, msg.From.ID)
	if err != nil {
		return err
	}

	user.AddPayoutDetail(entity.CurrencyBTC, details)
	if err = h.users.Save(ctx, user); err != nil {
		return err
	}

	if err = h.dialog.Reset(ctx, user.ID); err != nil {
		return err
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.RequisitesSaved, nil)
}

// handoffToSupport — текст без маркера: знакомого пользователя переключаем
// на операторов, незнакомого игнорируем.
func (h *Handler) handoffToSupport(ctx *th.Context, msg telego.Message) error {
	_, err := h.users.GetByID(ctx, msg.From.ID)
	if err != nil {
		if domain.IsCode(err, errcodes.UserNotFound) {
			return nil
		}
		return err
	}

	return h.forwardToSupport(ctx, msg)
}

func (h *Handler) forwardToSupport(ctx *th.Context, msg telego.Message) error {
	text := fmt.Sprintf("💬 От @%s (id %d):\n\n%s", msg.From.Username, msg.From.ID, msg.Text)

	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: h.supportChatID},
		Text:   text,
	})
	if err != nil {
		logger(ctx).Error("не удалось переслать сообщение в поддержку",
			logx.FieldUserID, msg.From.ID,
			logx.FieldError, err)
	}

	return nil
}

func parseAmount(text string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")

	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("invalid amount %q", text)
	}

	return amount, nil
}
