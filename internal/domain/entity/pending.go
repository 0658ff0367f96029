package entity

// PendingKind — какое следующее сообщение пользователя и как интерпретировать.
// В один момент у пользователя активен максимум один маркер.
type PendingKind string

const (
	PendingNone               PendingKind = ""
	PendingCaptcha            PendingKind = "captcha"
	PendingAmount             PendingKind = "amount"
	PendingWalletChoice       PendingKind = "walletChoice"
	PendingNewWalletText      PendingKind = "newWalletText"
	PendingSaveWalletDecision PendingKind = "saveWalletDecision"
	PendingPriorityChoice     PendingKind = "priorityChoice"
	PendingSupportText        PendingKind = "supportText"
	PendingWithdrawAmount     PendingKind = "withdrawAmount"
	PendingWithdrawWallet     PendingKind = "withdrawWallet"
	PendingProfileUpdate      PendingKind = "profileUpdate"
)

// PendingState — эфемерное состояние диалога, коллекция states, ключ userId.
type PendingState struct {
	UserID int64       `json:"userId"`
	Kind   PendingKind `json:"kind"`

	// Капча: правильный вариант из шести. Username и реферальный payload
	// переносятся из /start — запись пользователя появится только после
	// правильного ответа.
	CaptchaAnswer   string `json:"captchaAnswer,omitempty"`
	Username        string `json:"username,omitempty"`
	ReferralPayload string `json:"referralPayload,omitempty"`

	// Черновик сделки между шагами.
	Currency     Currency `json:"currency,omitempty"`
	DealType     DealType `json:"dealType,omitempty"`
	DraftDealID  string   `json:"draftDealId,omitempty"`
	RubAmount    float64  `json:"rubAmount,omitempty"`
	CryptoAmount float64  `json:"cryptoAmount,omitempty"`
	Commission   float64  `json:"commission,omitempty"`
	Wallet       string   `json:"wallet,omitempty"`

	// Вывод баланса.
	WithdrawRub    float64 `json:"withdrawRub,omitempty"`
	WithdrawCrypto float64 `json:"withdrawCrypto,omitempty"`

	// Последнее сообщение бота (редактируем/удаляем при навигации).
	MessageID int `json:"messageId,omitempty"`
}

func (p *PendingState) Active() bool {
	return p != nil && p.Kind != PendingNone
}
