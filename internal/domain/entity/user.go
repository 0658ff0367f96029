package entity

import "time"

type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username,omitempty"`
	Balance          float64   `json:"balance"` // реферальный заработок в BTC, 8 знаков
	Referrals        []int64   `json:"referrals"`
	ReferralID       string    `json:"referralId"`
	IsBlocked        bool      `json:"isBlocked"`
	BtcWallets       []string  `json:"btcWallets"`
	LtcWallets       []string  `json:"ltcWallets"`
	BtcPayoutDetails []string  `json:"btcPayoutDetails"`
	LtcPayoutDetails []string  `json:"ltcPayoutDetails"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// SavedWallets возвращает сохранённые кошельки пользователя для валюты.
func (u *User) SavedWallets(currency Currency) []string {
	if currency == CurrencyLTC {
		return u.LtcWallets
	}
	return u.BtcWallets
}

// SavedPayoutDetails — реквизиты выплат (для продажи) по валюте.
func (u *User) SavedPayoutDetails(currency Currency) []string {
	if currency == CurrencyLTC {
		return u.LtcPayoutDetails
	}
	return u.BtcPayoutDetails
}

func (u *User) AddWallet(currency Currency, address string) {
	if currency == CurrencyLTC {
		u.LtcWallets = appendUnique(u.LtcWallets, address)
		return
	}
	u.BtcWallets = appendUnique(u.BtcWallets, address)
}

func (u *User) AddPayoutDetail(currency Currency, details string) {
	if currency == CurrencyLTC {
		u.LtcPayoutDetails = appendUnique(u.LtcPayoutDetails, details)
		return
	}
	u.BtcPayoutDetails = appendUnique(u.BtcPayoutDetails, details)
}

func (u *User) HasReferral(userID int64) bool {
	for _, id := range u.Referrals {
		if id == userID {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append(list, v)
}
