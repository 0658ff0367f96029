package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	// Пользователи.
	UserNotFound  failure.ErrorCode = "UserNotFound"
	UserBlocked   failure.ErrorCode = "UserBlocked"
	InvalidUserID failure.ErrorCode = "InvalidUserID"

	// Сделки.
	DealNotFound       failure.ErrorCode = "DealNotFound"      // ID есть, записи в хранилище нет
	InvalidDealID      failure.ErrorCode = "InvalidDealID"     // пришёл мусор вместо ID
	InvalidDealStatus  failure.ErrorCode = "InvalidDealStatus" // переход недопустим из текущего статуса
	AmountOutOfBounds  failure.ErrorCode = "AmountOutOfBounds"
	InvalidAmount      failure.ErrorCode = "InvalidAmount"
	InvalidCurrency    failure.ErrorCode = "InvalidCurrency"
	InvalidWallet      failure.ErrorCode = "InvalidWallet"
	NoPaymentDetails   failure.ErrorCode = "NoPaymentDetails" // все карты исчерпаны либо на кулдауне
	PaymentDetailInUse failure.ErrorCode = "PaymentDetailInUse"

	// Выводы реферального баланса.
	WithdrawalNotFound  failure.ErrorCode = "WithdrawalNotFound"
	InsufficientBalance failure.ErrorCode = "InsufficientBalance"

	// Внешние зависимости.
	PriceFeedUnavailable failure.ErrorCode = "PriceFeedUnavailable"
	ProcessorUnavailable failure.ErrorCode = "ProcessorUnavailable"
	InvoiceNotFound      failure.ErrorCode = "InvoiceNotFound"

	// Хранилище.
	StorageCorrupted failure.ErrorCode = "StorageCorrupted"
)
