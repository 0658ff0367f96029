package entity

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusExpired InvoiceStatus = "expired"
)

// Invoice — счёт во внешнем процессинге.
type Invoice struct {
	ID         string        `json:"id"`
	Status     InvoiceStatus `json:"status"`
	PaymentURL string        `json:"paymentUrl"`
	ExpiresAt  time.Time     `json:"expiresAt"`
}
