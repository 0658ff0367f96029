package entity

import "time"

// PaymentDetail — реквизиты для приёма оплаты ("карта"). Показывается
// покупателю при создании сделки; ротация и лимиты — в service/allocation.
type PaymentDetail struct {
	ID          string `json:"id"`
	Description string `json:"description"`

	// Лимит суммарного подтверждённого объёма RUB в текущем окне.
	LimitReachedRub float64 `json:"limitReachedRub"`

	// Поднимается внешней джобой по истечении окна восстановления.
	LastReset time.Time `json:"lastReset"`

	// Момент последней выдачи карты покупателю.
	Timestamp time.Time `json:"timestamp"`

	ConfirmedUsages int `json:"confirmedUsages"`
}
