package view

// Тексты бота. HTML-разметка telego.ModeHTML.
const (
	Welcome = `👋 <b>Добро пожаловать в обменник!</b>

Покупка и продажа BTC и LTC за рубли.
Выберите действие в меню ниже.`

	CaptchaPrompt = `🤖 Подтвердите, что вы человек.

Нажмите на эмодзи: %s`

	CaptchaWrong = `❌ Неверно. Попробуйте ещё раз.

Нажмите на эмодзи: %s`

	ChooseCurrencyBuy  = "💱 Какую валюту покупаем?"
	ChooseCurrencySell = "💱 Какую валюту продаём?"

	EnterAmountBuy  = "Введите сумму покупки %s (в рублях или в монетах):"
	EnterAmountSell = "Введите сумму продажи %s (в рублях или в монетах):"

	QuoteTemplate = `📋 <b>Сделка</b>

Сумма: %.2f RUB (%.8f %s)
Комиссия: %.2f RUB
<b>Итого: %.2f RUB</b>

Повышенный приоритет ускоряет обработку (+%.0f RUB).`

	ChooseWalletBuy  = "Куда отправить криптовалюту? Выберите адрес или добавьте новый."
	ChooseWalletSell = "Куда перевести рубли? Выберите реквизиты или добавьте новые."

	EnterNewWallet = "Отправьте адрес одним сообщением:"

	SaveWalletPrompt = "Сохранить этот адрес для будущих сделок?"

	BuyInstructionsCard = `✅ <b>Сделка %s создана.</b>

Переведите <b>%.2f RUB</b> на реквизиты:
<code>%s</code>

После оплаты оператор подтвердит сделку и отправит криптовалюту.`

	BuyInstructionsInvoice = `✅ <b>Сделка %s создана.</b>

Оплатите счёт на <b>%.2f RUB</b>:
%s

Сделка подтвердится автоматически после оплаты.`

	BuyInstructionsOperator = `✅ <b>Сделка %s создана.</b>

Сумма к оплате: <b>%.2f RUB</b>.
Оператор свяжется с вами и выдаст реквизиты.`

	SellInstructions = `✅ <b>Сделка %s создана.</b>

Переведите <b>%.8f %s</b> на адрес:
<code>%s</code>

После поступления средств оператор переведёт вам %.2f RUB.`

	DealCancelled = "Сделка отменена."

	ProfileTemplate = `👤 <b>Профиль</b>

Реферальный баланс: %.8f BTC
Приглашено: %d
Сделок закрыто: %d

Реферальная ссылка:
<code>https://t.me/%s?start=%s</code>`

	SupportPrompt    = "✍️ Опишите вопрос одним сообщением, мы передадим его оператору."
	SupportForwarded = "✅ Сообщение передано. Оператор ответит в этом чате."

	RequisitesPrompt = "Отправьте реквизиты для выплат (BTC-адрес или карту) одним сообщением:"
	RequisitesSaved  = "✅ Реквизиты сохранены."

	WithdrawAmountPrompt = "Введите сумму вывода в BTC (доступно %.8f):"
	WithdrawWalletPrompt = "Введите BTC-адрес для выплаты:"
	WithdrawCreated      = "✅ Заявка на вывод %.8f BTC создана. Оператор обработает её в ближайшее время."

	ErrInvalidAmount    = "Не получилось разобрать сумму. Введите число, например 5000 или 0.001."
	ErrAmountOutOfRange = "Сумма вне допустимых границ: %s"
	ErrNoBalance        = "На реферальном балансе пусто."
	ErrInsufficient     = "На балансе меньше. Введите сумму не выше доступной."
	ErrGeneric          = "Что-то пошло не так. Попробуйте ещё раз или напишите в поддержку."
)
