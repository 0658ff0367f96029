// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

// Deal Сделка в админке
type Deal struct {
	ID                       string  `json:"id"`
	UserID                   int64   `json:"userId"`
	Type                     string  `json:"type"`
	Currency                 string  `json:"currency"`
	RubAmount                float64 `json:"rubAmount"`
	CryptoAmount             float64 `json:"cryptoAmount"`
	Commission               float64 `json:"commission"`
	Total                    float64 `json:"total"`
	WalletAddress            string  `json:"walletAddress"`
	Priority                 string  `json:"priority"`
	Status                   string  `json:"status"`
	SelectedPaymentDetailsID *string `json:"selectedPaymentDetailsId,omitempty"`
	ProcessingStatus         bool    `json:"processingStatus"`
	Timestamp                int64   `json:"timestamp"`
}

// User Пользователь в админке
type User struct {
	ID               int64   `json:"id"`
	Username         string  `json:"username,omitempty"`
	Balance          float64 `json:"balance"`
	Referrals        []int64 `json:"referrals"`
	ReferralID       string  `json:"referralId"`
	IsBlocked        bool    `json:"isBlocked"`
	RegistrationDate int64   `json:"registrationDate"`
}

// Withdrawal Заявка на вывод реферального баланса
type Withdrawal struct {
	ID            string  `json:"id"`
	UserID        int64   `json:"userId"`
	RubAmount     float64 `json:"rubAmount"`
	CryptoAmount  float64 `json:"cryptoAmount"`
	WalletAddress string  `json:"walletAddress"`
	Status        string  `json:"status"`
	Timestamp     int64   `json:"timestamp"`
}

// PaymentDetail Реквизиты для приёма оплаты ("карта")
type PaymentDetail struct {
	ID              string  `json:"id"`
	Description     string  `json:"description"`
	LimitReachedRub float64 `json:"limitReachedRub"`
	LastReset       int64   `json:"lastReset"`
	Timestamp       int64   `json:"timestamp"`
	ConfirmedUsages int     `json:"confirmedUsages"`
}

// CommissionTier Ступень шкалы комиссии
type CommissionTier struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// DiscountTier Ступень скидки по обороту
type DiscountTier struct {
	Amount   float64 `json:"amount"`
	Discount float64 `json:"discount"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`
}

// ErrorCode Код ошибки
type ErrorCode string

// VIPDiscount Персональная скидка по username
type VIPDiscount struct {
	Username string  `json:"username"`
	Discount float64 `json:"discount"`
}

// TradeBounds Границы суммы сделки в RUB
type TradeBounds struct {
	MinRub float64 `json:"minRub"`
	MaxRub float64 `json:"maxRub"`
}

// Settings Бизнес-конфигурация, правится из админки
type Settings struct {
	CommissionScales            map[string][]CommissionTier `json:"commissionScales"`
	DiscountTiers               []DiscountTier              `json:"discountTiers"`
	VIPDiscounts                []VIPDiscount               `json:"vipDiscounts"`
	TradeBounds                 map[string]TradeBounds      `json:"tradeBounds"`
	PriorityPriceRub            float64                     `json:"priorityPriceRub"`
	ReferralRevenuePercent      float64                     `json:"referralRevenuePercent"`
	ReceivingWallets            map[string]string           `json:"receivingWallets"`
	OperatorChatIDs             map[string][]int64          `json:"operatorChatIds"`
	PaymentDetails              []PaymentDetail             `json:"paymentDetails"`
	LimitReachedRecoveryHours   float64                     `json:"limitReachedRecoveryHours"`
	DealCreationRecoveryMinutes float64                     `json:"dealCreationRecoveryMinutes"`
	UsageSlack                  int                         `json:"usageSlack"`
	ProcessingEnabled           bool                        `json:"processingEnabled"`
	ProcessorName               string                      `json:"processorName"`
	DealPaymentDeadlineMinutes  float64                     `json:"dealPaymentDeadlineMinutes"`
}
