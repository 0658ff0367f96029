package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/transport/bot/view"
	"tg_exchange/pkg/errcodes"
	"tg_exchange/pkg/logx"
)

func (h *Handler) OnCaptchaCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	answer := callbackArg(query.Data, view.CallbackCaptcha)
	chatID := query.Message.GetChat().ID
	messageID := query.Message.GetMessageID()

	// Состояние читается до проверки: успех снимает маркер, а username
	// и реферальный payload нужны для создания записи пользователя.
	pending, err := h.dialog.Pending(ctx, query.From.ID)
	if err != nil {
		return err
	}

	ok, next, err := h.dialog.VerifyCaptcha(ctx, query.From.ID, answer)
	if err != nil {
		return err
	}

	if ok {
		if err = h.registerUser(ctx, query.From.ID, pending); err != nil {
			return err
		}
		return h.editHTML(ctx, chatID, messageID, view.Welcome, view.MainMenu())
	}
	if len(next.Options) == 0 {
		// Маркера капчи не было, колбэк от старого сообщения.
		return nil
	}

	text := fmt.Sprintf(view.CaptchaWrong, next.Answer)
	return h.editHTML(ctx, chatID, messageID, text, view.CaptchaKeyboard(next.Options))
}

// OnDealCallback ведёт выбор направления и валюты:
// "deal:buy" → клавиатура валют, "deal:buy:BTC" → запрос суммы.
func (h *Handler) OnDealCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	parts := strings.Split(query.Data, ":")
	chatID := query.Message.GetChat().ID
	messageID := query.Message.GetMessageID()

	dealType := entity.DealType(parts[1])
	if dealType != entity.DealTypeBuy && dealType != entity.DealTypeSell {
		return nil
	}

	if _, err := h.users.GetByID(ctx, query.From.ID); err != nil {
		if domain.IsCode(err, errcodes.UserNotFound) {
			return nil
		}
		return err
	}

	if len(parts) == 2 {
		text := view.ChooseCurrencyBuy
		if dealType == entity.DealTypeSell {
			text = view.ChooseCurrencySell
		}
		return h.editHTML(ctx, chatID, messageID, text, view.CurrencyKeyboard(dealType))
	}

	currency, ok := entity.ParseCurrency(parts[2])
	if !ok {
		return nil
	}

	if err := h.dialog.Set(ctx, &entity.PendingState{
		UserID:    query.From.ID,
		Kind:      entity.PendingAmount,
		Currency:  currency,
		DealType:  dealType,
		MessageID: messageID,
	}); err != nil {
		return err
	}

	text := fmt.Sprintf(view.EnterAmountBuy, currency)
	if dealType == entity.DealTypeSell {
		text = fmt.Sprintf(view.EnterAmountSell, currency)
	}

	return h.editHTML(ctx, chatID, messageID, text, nil)
}

func (h *Handler) OnPriorityCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	state, err := h.dialog.Pending(ctx, query.From.ID)
	if err != nil {
		return err
	}
	if !state.Active() || state.Kind != entity.PendingPriorityChoice || state.DraftDealID == "" {
		return nil
	}

	priority := entity.PriorityNormal
	if callbackArg(query.Data, view.CallbackPriority) == string(entity.PriorityElevated) {
		priority = entity.PriorityElevated
	}

	user, err := h.users.GetByID(ctx, query.From.ID)
	if err != nil {
		return err
	}

	draft, err := h.dealRepo.GetByID(ctx, state.DraftDealID)
	if err != nil {
		return err
	}

	if err = h.deals.ApplyPriority(ctx, user, draft, priority); err != nil {
		return err
	}

	state.Kind = entity.PendingWalletChoice
	if err = h.dialog.Set(ctx, state); err != nil {
		return err
	}

	wallets := user.SavedWallets(draft.Currency)
	text := view.ChooseWalletBuy
	if draft.Type == entity.DealTypeSell {
		wallets = user.SavedPayoutDetails(draft.Currency)
		text = view.ChooseWalletSell
	}

	chatID := query.Message.GetChat().ID
	return h.editHTML(ctx, chatID, query.Message.GetMessageID(), text, view.WalletKeyboard(wallets))
}

func (h *Handler) OnWalletCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	state, err := h.dialog.Pending(ctx, query.From.ID)
	if err != nil {
		return err
	}
	if !state.Active() || state.Kind != entity.PendingWalletChoice {
		return nil
	}

	chatID := query.Message.GetChat().ID
	arg := callbackArg(query.Data, view.CallbackWallet)

	if arg == "new" {
		state.Kind = entity.PendingNewWalletText
		if err = h.dialog.Set(ctx, state); err != nil {
			return err
		}
		return h.editHTML(ctx, chatID, query.Message.GetMessageID(), view.EnterNewWallet, nil)
	}

	idx, err := strconv.Atoi(arg)
	if err != nil {
		return nil
	}

	user, err := h.users.GetByID(ctx, query.From.ID)
	if err != nil {
		return err
	}

	draft, err := h.dealRepo.GetByID(ctx, state.DraftDealID)
	if err != nil {
		return err
	}

	wallets := user.SavedWallets(draft.Currency)
	if draft.Type == entity.DealTypeSell {
		wallets = user.SavedPayoutDetails(draft.Currency)
	}
	if idx < 0 || idx >= len(wallets) {
		return nil
	}

	return h.submitDeal(ctx, chatID, state, draft, wallets[idx])
}

func (h *Handler) OnSaveWalletCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	state, err := h.dialog.Pending(ctx, query.From.ID)
	if err != nil {
		return err
	}
	if !state.Active() || state.Kind != entity.PendingSaveWalletDecision || state.Wallet == "" {
		return nil
	}

	user, err := h.users.GetByID(ctx, query.From.ID)
	if err != nil {
		return err
	}

	draft, err := h.dealRepo.GetByID(ctx, state.DraftDealID)
	if err != nil {
		return err
	}

	if callbackArg(query.Data, view.CallbackSave) == "yes" {
		if draft.Type == entity.DealTypeBuy {
			user.AddWallet(draft.Currency, state.Wallet)
		} else {
			user.AddPayoutDetail(draft.Currency, state.Wallet)
		}
		if err = h.users.Save(ctx, user); err != nil {
			return err
		}
	}

	return h.submitDeal(ctx, query.Message.GetChat().ID, state, draft, state.Wallet)
}

func (h *Handler) OnCancelCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	state, err := h.dialog.Pending(ctx, query.From.ID)
	if err != nil {
		return err
	}

	if state.Active() && state.DraftDealID != "" {
		if err = h.deals.Delete(ctx, state.DraftDealID); err != nil {
			logger(ctx).Warn("не удалось удалить черновик",
				logx.FieldDealID, state.DraftDealID,
				logx.FieldError, err)
		}
	}

	if err = h.dialog.Reset(ctx, query.From.ID); err != nil {
		return err
	}

	chatID := query.Message.GetChat().ID
	return h.editHTML(ctx, chatID, query.Message.GetMessageID(), view.DealCancelled, view.MainMenu())
}

func (h *Handler) OnWithdrawCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	user, err := h.users.GetByID(ctx, query.From.ID)
	if err != nil {
		return err
	}

	chatID := query.Message.GetChat().ID

	if user.Balance <= 0 {
		return h.sendHTML(ctx, chatID, view.ErrNoBalance, nil)
	}

	if err = h.dialog.Set(ctx, &entity.PendingState{
		UserID: query.From.ID,
		Kind:   entity.PendingWithdrawAmount,
	}); err != nil {
		return err
	}

	return h.sendHTML(ctx, chatID, fmt.Sprintf(view.WithdrawAmountPrompt, user.Balance), nil)
}

func (h *Handler) OnMenuCallback(ctx *th.Context, query telego.CallbackQuery) error {
	defer h.answer(ctx, query.ID)

	chatID := query.Message.GetChat().ID
	messageID := query.Message.GetMessageID()

	if err := h.dialog.Reset(ctx, query.From.ID); err != nil {
		return err
	}

	switch callbackArg(query.Data, view.CallbackMenu) {
	case "profile":
		text, err := h.profileText(ctx, query.From.ID)
		if err != nil {
			return err
		}
		return h.editHTML(ctx, chatID, messageID, text, view.ProfileKeyboard())
	case "support":
		if err := h.dialog.Set(ctx, &entity.PendingState{
			UserID: query.From.ID,
			Kind:   entity.PendingSupportText,
		}); err != nil {
			return err
		}
		return h.editHTML(ctx, chatID, messageID, view.SupportPrompt, nil)
	case "requisites":
		if err := h.dialog.Set(ctx, &entity.PendingState{
			UserID: query.From.ID,
			Kind:   entity.PendingProfileUpdate,
		}); err != nil {
			return err
		}
		return h.editHTML(ctx, chatID, messageID, view.RequisitesPrompt, nil)
	default:
		return h.editHTML(ctx, chatID, messageID, view.Welcome, view.MainMenu())
	}
}

// submitDeal подтверждает сделку и показывает платёжные инструкции.
func (h *Handler) submitDeal(ctx *th.Context, chatID int64, state *entity.PendingState, draft *entity.Deal, wallet string) error {
	if err := h.deals.Submit(ctx, draft, wallet); err != nil {
		return err
	}

	if err := h.dialog.Reset(ctx, state.UserID); err != nil {
		return err
	}

	settings, err := h.settings.Get(ctx)
	if err != nil {
		return err
	}

	var text string
	switch {
	case draft.Type == entity.DealTypeSell:
		text = fmt.Sprintf(view.SellInstructions,
			draft.ID, draft.CryptoAmount, draft.Currency,
			settings.ReceivingWallets[draft.Currency], draft.Total)
	case draft.PaymentURL != "":
		text = fmt.Sprintf(view.BuyInstructionsInvoice, draft.ID, draft.Total, draft.PaymentURL)
	case draft.SelectedPaymentDetailsID != nil:
		text = fmt.Sprintf(view.BuyInstructionsCard,
			draft.ID, draft.Total, paymentDetailsText(settings, *draft.SelectedPaymentDetailsID))
	default:
		text = fmt.Sprintf(view.BuyInstructionsOperator, draft.ID, draft.Total)
	}

	return h.sendHTML(ctx, chatID, text, nil)
}

func paymentDetailsText(settings *entity.Settings, detailID string) string {
	for _, d := range settings.PaymentDetails {
		if d.ID == detailID {
			return d.Description
		}
	}
	return ""
}

func (h *Handler) answer(ctx *th.Context, queryID string) {
	if err := ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(queryID)); err != nil {
		logger(ctx).Warn("не удалось ответить на колбэк", logx.FieldError, err)
	}
}

func callbackArg(data, prefix string) string {
	return strings.TrimPrefix(data, prefix+":")
}
