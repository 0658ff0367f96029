package processor

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"tg_exchange/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	NameAnyPay = "anypay"
	NamePayOk  = "payok"
)

// PaymentVariant — способ оплаты, который процессинг готов принять.
type PaymentVariant struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	MinRub float64 `json:"minRub"`
	MaxRub float64 `json:"maxRub"`
}

// Processor — внешний платёжный процессинг. Все вызовы уважают дедлайны ctx.
type Processor interface {
	Name() string
	CreateInvoice(ctx context.Context, deal *entity.Deal) (*entity.Invoice, error)
	AvailablePaymentVariants(ctx context.Context) ([]PaymentVariant, error)
	StartDeal(ctx context.Context, deal *entity.Deal, variantID string) (*entity.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (*entity.Invoice, error)
	CancelInvoice(ctx context.Context, invoiceID string) error
}

// ResolveName определяет действующее имя процессинга: значение из
// настроек перекрывает окружение.
func ResolveName(fromSettings, fromEnv string) string {
	if fromSettings != "" {
		return fromSettings
	}
	return fromEnv
}

// Select возвращает процессинг по имени из настроек. Неизвестное имя — анипей.
func Select(name string, anypay, payok Processor) Processor {
	if name == NamePayOk {
		return payok
	}
	return anypay
}
