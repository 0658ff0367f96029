package deal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/domain/service/pricing"
	"tg_exchange/pkg/contextx"
	"tg_exchange/pkg/errcodes"
	"tg_exchange/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault

// Минимальная сумма покупки при включённом процессинге, RUB.
const processorMinBuyRub = 1000

type DealRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Deal, error)
	Save(ctx context.Context, deal *entity.Deal) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	FindReferrerOf(ctx context.Context, userID int64) (*entity.User, error)
	Save(ctx context.Context, user *entity.User) error
}

type SettingsSource interface {
	Get(ctx context.Context) (*entity.Settings, error)
	UpdatePaymentDetail(ctx context.Context, detail entity.PaymentDetail) error
}

// PriceSource — курс валюты в RUB; stale не мешает сделке.
type PriceSource interface {
	Rate(ctx context.Context, currency entity.Currency) (rub float64, stale bool)
}

// Allocator выбирает карту для приёма оплаты (nil — подходящих нет).
type Allocator interface {
	Pick(ctx context.Context, rubAmount float64) (*entity.PaymentDetail, error)
}

type PaymentProcessor interface {
	CreateInvoice(ctx context.Context, deal *entity.Deal) (*entity.Invoice, error)
	CancelInvoice(ctx context.Context, invoiceID string) error
}

// Notifier шлёт уведомления операторам и пользователям. Ошибки доставки
// глотаются сервисом.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// InvoiceWatcher — регистрация опроса счёта по сделке.
type InvoiceWatcher interface {
	Watch(dealID string)
	Cancel(dealID string)
}

// Service — машина состояний сделки:
// draft → unpaid → completed | expired
// draft → pending → completed | expired
// Отмена на любом шаге — удаление записи.
type Service struct {
	deals     DealRepository
	users     UserRepository
	settings  SettingsSource
	prices    PriceSource
	pricing   *pricing.Engine
	allocator Allocator
	processor PaymentProcessor
	notifier  Notifier
	watcher   InvoiceWatcher

	now func() time.Time
}

func NewService(
	deals DealRepository,
	users UserRepository,
	settings SettingsSource,
	prices PriceSource,
	pricingEngine *pricing.Engine,
	allocator Allocator,
	notifier Notifier,
) *Service {
	return &Service{
		deals:     deals,
		users:     users,
		settings:  settings,
		prices:    prices,
		pricing:   pricingEngine,
		allocator: allocator,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *Service) WithProcessor(processor PaymentProcessor) *Service {
	s.processor = processor
	return s
}

func (s *Service) WithWatcher(watcher InvoiceWatcher) *Service {
	s.watcher = watcher
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateDraft интерпретирует введённую сумму, проверяет границы и сохраняет
// черновик. Эвристика ввода: BTC меньше 1 — криптовалюта; LTC меньше 100 на
// покупке и меньше 1000 на продаже — криптовалюта; иначе RUB.
func (s *Service) CreateDraft(
	ctx context.Context,
	user *entity.User,
	dealType entity.DealType,
	currency entity.Currency,
	amount float64,
) (*entity.Deal, error) {
	if amount <= 0 {
		return nil, domain.NewError(errcodes.InvalidAmount, "сумма должна быть больше нуля")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	rate, _ := s.prices.Rate(ctx, currency)

	var rubAmount, cryptoAmount float64
	if amountIsCrypto(currency, dealType, amount) {
		cryptoAmount = pricing.Round8(amount)
		rubAmount = pricing.Round2(amount * rate)
	} else {
		rubAmount = pricing.Round2(amount)
		cryptoAmount = pricing.Round8(amount / rate)
	}

	bounds := settings.Bounds(currency, dealType)
	minRub := bounds.MinRub
	if settings.ProcessingEnabled && dealType == entity.DealTypeBuy && minRub < processorMinBuyRub {
		minRub = processorMinBuyRub
	}

	if rubAmount < minRub || (bounds.MaxRub > 0 && rubAmount > bounds.MaxRub) {
		return nil, domain.NewError(errcodes.AmountOutOfBounds,
			fmt.Sprintf("допустимая сумма от %.0f до %.0f RUB", minRub, bounds.MaxRub))
	}

	quote, err := s.pricing.Compute(ctx, user, dealType, currency, rubAmount, entity.PriorityNormal, s.now())
	if err != nil {
		return nil, err
	}

	deal := &entity.Deal{
		ID:           xid.New().String(),
		UserID:       user.ID,
		Type:         dealType,
		Currency:     currency,
		RubAmount:    rubAmount,
		CryptoAmount: cryptoAmount,
		Commission:   quote.Commission,
		Total:        quote.Total,
		Priority:     entity.PriorityNormal,
		Status:       entity.DealStatusDraft,
		Timestamp:    s.now(),
	}

	if err = s.deals.Save(ctx, deal); err != nil {
		return nil, err
	}

	return deal, nil
}

// ApplyPriority пересчитывает котировку черновика под выбранный приоритет.
func (s *Service) ApplyPriority(ctx context.Context, user *entity.User, deal *entity.Deal, priority entity.Priority) error {
	if deal.Status != entity.DealStatusDraft {
		return domain.NewError(errcodes.InvalidDealStatus, "приоритет меняется только у черновика")
	}

	quote, err := s.pricing.Compute(ctx, user, deal.Type, deal.Currency, deal.RubAmount, priority, s.now())
	if err != nil {
		return err
	}

	deal.Priority = priority
	deal.Commission = quote.Commission
	deal.Total = quote.Total

	return s.deals.Save(ctx, deal)
}

// Submit переводит черновик в активное состояние. Для покупки подбирается
// карта (её отсутствие сделку не блокирует) и, при включённом процессинге,
// выставляется счёт. Ошибка процессинга оставляет черновик как есть.
func (s *Service) Submit(ctx context.Context, deal *entity.Deal, wallet string) error {
	if deal.Status != entity.DealStatusDraft {
		return domain.NewError(errcodes.InvalidDealStatus, "подтвердить можно только черновик")
	}
	if wallet == "" {
		return domain.NewError(errcodes.InvalidWallet, "не указан адрес")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}

	deal.WalletAddress = wallet

	if deal.Type == entity.DealTypeBuy {
		detail, err := s.allocator.Pick(ctx, deal.RubAmount)
		if err != nil {
			return err
		}
		if detail != nil {
			deal.SelectedPaymentDetailsID = &detail.ID
		} else {
			logger(ctx).Warn("нет доступных реквизитов, сделка уходит оператору",
				logx.FieldDealID, deal.ID)
		}

		if settings.ProcessingEnabled && s.processor != nil {
			invoice, err := s.processor.CreateInvoice(ctx, deal)
			if err != nil {
				return domain.WrapError(err, errcodes.ProcessorUnavailable, "не удалось выставить счёт")
			}

			deal.ProcessingStatus = true
			deal.InvoiceID = invoice.ID
			deal.PaymentURL = invoice.PaymentURL
			deal.Status = entity.DealStatusUnpaid
		} else {
			deal.Status = entity.DealStatusPending
		}
	} else {
		deal.Status = entity.DealStatusPending
	}

	deal.Timestamp = s.now()

	if err = s.deals.Save(ctx, deal); err != nil {
		return err
	}

	if deal.Status == entity.DealStatusUnpaid && s.watcher != nil {
		s.watcher.Watch(deal.ID)
	}

	s.notifyOperators(ctx, settings, deal, fmt.Sprintf(
		"Новая сделка %s: %s %s на %.2f RUB (итог %.2f)",
		deal.ID, deal.Type, deal.Currency, deal.RubAmount, deal.Total))

	return nil
}

// Complete закрывает сделку оператором: инкремент usages выбранной карты,
// реферальный бонус с комиссии, снятие опроса счёта.
func (s *Service) Complete(ctx context.Context, dealID string) (*entity.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.Status != entity.DealStatusUnpaid && deal.Status != entity.DealStatusPending {
		return nil, domain.NewError(errcodes.InvalidDealStatus, "закрыть можно только активную сделку")
	}

	deal.Status = entity.DealStatusCompleted

	if err = s.deals.Save(ctx, deal); err != nil {
		return nil, err
	}

	if s.watcher != nil {
		s.watcher.Cancel(deal.ID)
	}

	s.confirmPaymentDetail(ctx, deal)
	s.creditReferrer(ctx, deal)
	s.notifyCompleted(ctx, deal)

	return deal, nil
}

func (s *Service) notifyCompleted(ctx context.Context, deal *entity.Deal) {
	text := fmt.Sprintf("✅ Сделка %s завершена: %s %s на %.2f RUB",
		deal.ID, deal.Type, deal.Currency, deal.RubAmount)

	if err := s.notifier.SendMessage(ctx, deal.UserID, text); err != nil {
		logger(ctx).Error("не доставлено уведомление о завершении",
			logx.FieldChatID, deal.UserID,
			logx.FieldDealID, deal.ID,
			logx.FieldError, err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return
	}

	s.notifyOperators(ctx, settings, deal, fmt.Sprintf(
		"✅ Сделка %s закрыта: %s %s на %.2f RUB", deal.ID, deal.Type, deal.Currency, deal.RubAmount))
}

// Expire помечает активную сделку просроченной и отменяет счёт.
func (s *Service) Expire(ctx context.Context, dealID string) (*entity.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.Status.Terminal() {
		return nil, domain.NewError(errcodes.InvalidDealStatus, "сделка уже закрыта")
	}

	deal.Status = entity.DealStatusExpired

	if err = s.deals.Save(ctx, deal); err != nil {
		return nil, err
	}

	if s.watcher != nil {
		s.watcher.Cancel(deal.ID)
	}
	s.cancelInvoice(ctx, deal)

	return deal, nil
}

// Delete — отмена сделки: запись удаляется, счёт отменяется. Закрытые и
// просроченные сделки не удаляются: по ним уже посчитаны оборот и usages.
func (s *Service) Delete(ctx context.Context, dealID string) error {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return err
	}
	if deal.Status.Terminal() {
		return domain.NewError(errcodes.InvalidDealStatus, "закрытая сделка не удаляется")
	}

	if s.watcher != nil {
		s.watcher.Cancel(deal.ID)
	}
	s.cancelInvoice(ctx, deal)

	return s.deals.Delete(ctx, deal.ID)
}

func (s *Service) notifyOperators(ctx context.Context, settings *entity.Settings, deal *entity.Deal, text string) {
	for _, chatID := range settings.OperatorChatIDs[deal.Currency] {
		if err := s.notifier.SendMessage(ctx, chatID, text); err != nil {
			logger(ctx).Error("не доставлено уведомление оператору",
				logx.FieldChatID, chatID,
				logx.FieldDealID, deal.ID,
				logx.FieldError, err)
		}
	}
}

// confirmPaymentDetail поднимает счётчик подтверждённых использований карты.
func (s *Service) confirmPaymentDetail(ctx context.Context, deal *entity.Deal) {
	if deal.Type != entity.DealTypeBuy || deal.SelectedPaymentDetailsID == nil {
		return
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		logger(ctx).Error("не удалось прочитать настройки", logx.FieldError, err)
		return
	}

	for _, detail := range settings.PaymentDetails {
		if detail.ID != *deal.SelectedPaymentDetailsID {
			continue
		}

		detail.ConfirmedUsages++
		if err = s.settings.UpdatePaymentDetail(ctx, detail); err != nil {
			logger(ctx).Error("не удалось обновить реквизиты",
				logx.FieldPaymentDetailID, detail.ID,
				logx.FieldError, err)
		}
		return
	}
}

// creditReferrer начисляет рефереру его процент с комиссии в BTC.
func (s *Service) creditReferrer(ctx context.Context, deal *entity.Deal) {
	if deal.Commission <= 0 {
		return
	}

	referrer, err := s.users.FindReferrerOf(ctx, deal.UserID)
	if err != nil || referrer == nil {
		return
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		logger(ctx).Error("не удалось прочитать настройки", logx.FieldError, err)
		return
	}

	btcRate, _ := s.prices.Rate(ctx, entity.CurrencyBTC)

	bonus := pricing.ReferralBonus(deal.Commission, btcRate, settings.ReferralRevenuePercent)
	if bonus <= 0 {
		return
	}

	referrer.Balance = pricing.Round8(referrer.Balance + bonus)
	if err = s.users.Save(ctx, referrer); err != nil {
		logger(ctx).Error("не удалось начислить реферальный бонус",
			logx.FieldUserID, referrer.ID,
			logx.FieldError, err)
	}
}

func (s *Service) cancelInvoice(ctx context.Context, deal *entity.Deal) {
	if !deal.ProcessingStatus || deal.InvoiceID == "" || s.processor == nil {
		return
	}

	if err := s.processor.CancelInvoice(ctx, deal.InvoiceID); err != nil {
		logger(ctx).Warn("не удалось отменить счёт",
			logx.FieldDealID, deal.ID,
			logx.FieldInvoiceID, deal.InvoiceID,
			logx.FieldError, err)
	}
}

// amountIsCrypto — эвристика интерпретации введённой суммы.
func amountIsCrypto(currency entity.Currency, dealType entity.DealType, amount float64) bool {
	switch currency {
	case entity.CurrencyBTC:
		return amount < 1
	case entity.CurrencyLTC:
		if dealType == entity.DealTypeBuy {
			return amount < 100
		}
		return amount < 1000
	}
	return false
}
