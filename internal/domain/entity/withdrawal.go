package entity

import "time"

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// Withdrawal — вывод реферального баланса. Баланс списывается при создании
// заявки, не при её закрытии.
type Withdrawal struct {
	ID            string           `json:"id"`
	UserID        int64            `json:"userId"`
	RubAmount     float64          `json:"rubAmount"`
	CryptoAmount  float64          `json:"cryptoAmount"`
	WalletAddress string           `json:"walletAddress"`
	Status        WithdrawalStatus `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
}
