package entity

// Settings — бизнес-конфигурация из коллекции config. Правится из админки в
// рантайме, поэтому читается на каждое обращение (через короткий кэш
// хранилища), а не держится в памяти процесса.
type Settings struct {
	// Шкалы комиссии, отсортированы по возрастанию порога amount.
	CommissionScales map[string][]CommissionTier `json:"commissionScales"`

	// Скидки по обороту, отсортированы по возрастанию порога.
	DiscountTiers []DiscountTier `json:"discountTiers"`

	// VIP-скидки по username.
	VIPDiscounts []VIPDiscount `json:"vipDiscounts"`

	// Границы суммы сделки в RUB.
	TradeBounds map[string]TradeBounds `json:"tradeBounds"`

	PriorityPriceRub      float64 `json:"priorityPriceRub"`
	ReferralRevenuePercent float64 `json:"referralRevenuePercent"`

	// Адреса приёма криптовалюты площадки (показываются при продаже).
	ReceivingWallets map[Currency]string `json:"receivingWallets"`

	// Маршрутизация операторов по валюте.
	OperatorChatIDs map[Currency][]int64 `json:"operatorChatIds"`

	// Реквизиты для приёма оплаты.
	PaymentDetails []PaymentDetail `json:"paymentDetails"`

	// Параметры ротации карт.
	LimitReachedRecoveryHours   float64 `json:"limitReachedRecoveryHours"`
	DealCreationRecoveryMinutes float64 `json:"dealCreationRecoveryMinutes"`
	UsageSlack                  int     `json:"usageSlack"` // окно справедливости ротации, по умолчанию 1

	// Процессинг.
	ProcessingEnabled  bool   `json:"processingEnabled"`
	ProcessorName      string `json:"processorName"` // anypay | payok
	DealPaymentDeadlineMinutes float64 `json:"dealPaymentDeadlineMinutes"`
}

type CommissionTier struct {
	Amount  float64 `json:"amount"`  // порог суммы, RUB
	Percent float64 `json:"percent"` // процент комиссии
}

type DiscountTier struct {
	Amount   float64 `json:"amount"`   // порог оборота, RUB
	Discount float64 `json:"discount"` // процент скидки
}

type VIPDiscount struct {
	Username string  `json:"username"`
	Discount float64 `json:"discount"`
}

type TradeBounds struct {
	MinRub float64 `json:"minRub"`
	MaxRub float64 `json:"maxRub"`
}

// ScaleKey — ключ шкалы комиссии и границ по валюте и направлению.
func ScaleKey(currency Currency, dealType DealType) string {
	return string(currency) + ":" + string(dealType)
}

// Scale возвращает шкалу комиссии для валюты и направления.
func (s *Settings) Scale(currency Currency, dealType DealType) []CommissionTier {
	return s.CommissionScales[ScaleKey(currency, dealType)]
}

// Bounds возвращает границы суммы сделки для валюты и направления.
func (s *Settings) Bounds(currency Currency, dealType DealType) TradeBounds {
	return s.TradeBounds[ScaleKey(currency, dealType)]
}

// VIPDiscount возвращает VIP-скидку по username (0, если её нет).
func (s *Settings) VIPDiscountFor(username string) float64 {
	if username == "" {
		return 0
	}
	for _, vip := range s.VIPDiscounts {
		if vip.Username == username {
			return vip.Discount
		}
	}
	return 0
}

// FairnessSlack — допустимое отставание usages карты до признания её
// "отстающей" в ротации.
func (s *Settings) FairnessSlack() int {
	if s.UsageSlack <= 0 {
		return 1
	}
	return s.UsageSlack
}
