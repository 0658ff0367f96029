package entity

import "time"

type Currency string

const (
	CurrencyBTC Currency = "BTC"
	CurrencyLTC Currency = "LTC"
)

func ParseCurrency(s string) (Currency, bool) {
	switch Currency(s) {
	case CurrencyBTC, CurrencyLTC:
		return Currency(s), true
	}
	return "", false
}

type DealType string

const (
	DealTypeBuy  DealType = "buy"
	DealTypeSell DealType = "sell"
)

type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityElevated Priority = "elevated"
)

type DealStatus string

const (
	DealStatusDraft     DealStatus = "draft"
	DealStatusUnpaid    DealStatus = "unpaid"  // ждём оплату через процессинг
	DealStatusPending   DealStatus = "pending" // ждём действия оператора
	DealStatusCompleted DealStatus = "completed"
	DealStatusExpired   DealStatus = "expired"
)

// Terminal сообщает, что сделка больше не мутируется.
func (s DealStatus) Terminal() bool {
	return s == DealStatusCompleted || s == DealStatusExpired
}

type Deal struct {
	ID           string     `json:"id"`
	UserID       int64      `json:"userId"`
	Type         DealType   `json:"type"`
	Currency     Currency   `json:"currency"`
	RubAmount    float64    `json:"rubAmount"`
	CryptoAmount float64    `json:"cryptoAmount"` // 8 знаков
	Commission   float64    `json:"commission"`   // 2 знака, RUB
	Total        float64    `json:"total"`        // всегда кратно 50 RUB
	Priority     Priority   `json:"priority"`
	Status       DealStatus `json:"status"`

	// Для buy — адрес получения криптовалюты, для sell — реквизиты выплаты.
	WalletAddress string `json:"walletAddress"`

	SelectedPaymentDetailsID *string `json:"selectedPaymentDetailsId,omitempty"`

	// Включена ли интеграция с процессингом для этой сделки.
	ProcessingStatus bool   `json:"processingStatus"`
	InvoiceID        string `json:"invoiceId,omitempty"`
	PaymentURL       string `json:"paymentUrl,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// PriorityFee возвращает наценку за повышенный приоритет (ноль для обычного).
func (d *Deal) PriorityFee(priorityPriceRub float64) float64 {
	if d.Priority == PriorityElevated {
		return priorityPriceRub
	}
	return 0
}
