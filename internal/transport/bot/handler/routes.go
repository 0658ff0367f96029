package handler

import (
	th "github.com/mymmrac/telego/telegohandler"

	"tg_exchange/internal/transport/bot/view"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler) {
	bh.HandleMessage(h.OnStart, th.CommandEqual("start"))
	bh.HandleMessage(h.OnBuy, th.CommandEqual("buy"))
	bh.HandleMessage(h.OnSell, th.CommandEqual("sell"))
	bh.HandleMessage(h.OnProfile, th.CommandEqual("profile"))
	bh.HandleMessage(h.OnSupport, th.CommandEqual("support"))

	bh.HandleCallbackQuery(h.OnCaptchaCallback, th.CallbackDataPrefix(view.CallbackCaptcha+":"))
	bh.HandleCallbackQuery(h.OnDealCallback, th.CallbackDataPrefix(view.CallbackDeal+":"))
	bh.HandleCallbackQuery(h.OnPriorityCallback, th.CallbackDataPrefix(view.CallbackPriority+":"))
	bh.HandleCallbackQuery(h.OnWalletCallback, th.CallbackDataPrefix(view.CallbackWallet+":"))
	bh.HandleCallbackQuery(h.OnSaveWalletCallback, th.CallbackDataPrefix(view.CallbackSave+":"))
	bh.HandleCallbackQuery(h.OnCancelCallback, th.CallbackDataPrefix(view.CallbackCancel+":"))
	bh.HandleCallbackQuery(h.OnWithdrawCallback, th.CallbackDataPrefix(view.CallbackWithdraw+":"))
	bh.HandleCallbackQuery(h.OnMenuCallback, th.CallbackDataPrefix(view.CallbackMenu+":"))

	// Свободный текст разбирается по активному pending-маркеру.
	bh.HandleMessage(h.OnText, th.AnyMessageWithText())
}
