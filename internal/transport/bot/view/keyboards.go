package view

import (
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg_exchange/internal/domain/entity"
)

// Префиксы callback-данных. Формат: "<префикс>:<аргумент>".
const (
	CallbackCaptcha  = "captcha"
	CallbackDeal     = "deal"
	CallbackPriority = "priority"
	CallbackWallet   = "wallet"
	CallbackSave     = "savewallet"
	CallbackCancel   = "cancel"
	CallbackWithdraw = "withdraw"
	CallbackMenu     = "menu"
)

func MainMenu() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🟢 Купить").WithCallbackData(CallbackDeal+":buy"),
			tu.InlineKeyboardButton("🔴 Продать").WithCallbackData(CallbackDeal+":sell"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("👤 Профиль").WithCallbackData(CallbackMenu+":profile"),
			tu.InlineKeyboardButton("💬 Поддержка").WithCallbackData(CallbackMenu+":support"),
		),
	)
}

func CaptchaKeyboard(options []string) *telego.InlineKeyboardMarkup {
	buttons := make([]telego.InlineKeyboardButton, 0, len(options))
	for _, emoji := range options {
		buttons = append(buttons,
			tu.InlineKeyboardButton(emoji).WithCallbackData(CallbackCaptcha+":"+emoji))
	}

	return tu.InlineKeyboard(buttons[:3], buttons[3:])
}

func CurrencyKeyboard(dealType entity.DealType) *telego.InlineKeyboardMarkup {
	prefix := CallbackDeal + ":" + string(dealType) + ":"

	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("₿ BTC").WithCallbackData(prefix+string(entity.CurrencyBTC)),
			tu.InlineKeyboardButton("Ł LTC").WithCallbackData(prefix+string(entity.CurrencyLTC)),
		),
	)
}

func PriorityKeyboard(priorityPriceRub float64) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("Обычный").WithCallbackData(CallbackPriority+":normal"),
			tu.InlineKeyboardButton(fmt.Sprintf("⚡ Приоритет (+%.0f ₽)", priorityPriceRub)).
				WithCallbackData(CallbackPriority+":elevated"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("❌ Отмена").WithCallbackData(CallbackCancel+":deal"),
		),
	)
}

// WalletKeyboard — сохранённые адреса по индексу плюс ввод нового.
func WalletKeyboard(wallets []string) *telego.InlineKeyboardMarkup {
	rows := make([][]telego.InlineKeyboardButton, 0, len(wallets)+2)
	for i, w := range wallets {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(shorten(w)).
				WithCallbackData(CallbackWallet+":"+strconv.Itoa(i)),
		))
	}

	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("➕ Новый адрес").WithCallbackData(CallbackWallet+":new"),
	))
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("❌ Отмена").WithCallbackData(CallbackCancel+":deal"),
	))

	return tu.InlineKeyboard(rows...)
}

func SaveWalletKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💾 Сохранить").WithCallbackData(CallbackSave+":yes"),
			tu.InlineKeyboardButton("Не сохранять").WithCallbackData(CallbackSave+":no"),
		),
	)
}

func ProfileKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💸 Вывести баланс").WithCallbackData(CallbackWithdraw + ":start"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✏️ Реквизиты выплат").WithCallbackData(CallbackMenu + ":requisites"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("⬅️ В меню").WithCallbackData(CallbackMenu + ":main"),
		),
	)
}

func shorten(address string) string {
	if len(address) <= 16 {
		return address
	}
	return address[:8] + "…" + address[len(address)-6:]
}
