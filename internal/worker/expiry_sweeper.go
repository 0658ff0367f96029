package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/logx"
)

type DealSource interface {
	ListByStatus(ctx context.Context, statuses ...entity.DealStatus) ([]entity.Deal, error)
}

type DealExpirer interface {
	Expire(ctx context.Context, dealID string) (*entity.Deal, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (*entity.Settings, error)
}

type InvoiceSource interface {
	GetInvoice(ctx context.Context, invoiceID string) (*entity.Invoice, error)
}

type UserNotifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ExpirySweeper периодически просрочивает неоплаченные сделки: по дедлайну
// оплаты из настроек и по expires_at счёта в процессинге. Если прошлый
// проход ещё идёт, очередной тик пропускается.
type ExpirySweeper struct {
	deals     DealSource
	expirer   DealExpirer
	settings  SettingsSource
	invoices  InvoiceSource
	notifier  UserNotifier
	interval  time.Duration
	busy      atomic.Bool
	now       func() time.Time
}

func NewExpirySweeper(
	deals DealSource,
	expirer DealExpirer,
	settings SettingsSource,
	notifier UserNotifier,
	interval time.Duration,
) *ExpirySweeper {
	return &ExpirySweeper{
		deals:    deals,
		expirer:  expirer,
		settings: settings,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

func (w *ExpirySweeper) WithInvoices(invoices InvoiceSource) *ExpirySweeper {
	w.invoices = invoices
	return w
}

func (w *ExpirySweeper) WithClock(now func() time.Time) *ExpirySweeper {
	w.now = now
	return w
}

func (w *ExpirySweeper) Name() string { return "expiry-sweeper" }

func (w *ExpirySweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !w.busy.CompareAndSwap(false, true) {
				continue
			}
			w.Sweep(ctx)
			w.busy.Store(false)
		}
	}
}

// Sweep — один проход по неоплаченным сделкам.
func (w *ExpirySweeper) Sweep(ctx context.Context) {
	settings, err := w.settings.Get(ctx)
	if err != nil {
		logger(ctx).Error("не удалось прочитать настройки", logx.FieldError, err)
		return
	}

	deals, err := w.deals.ListByStatus(ctx, entity.DealStatusUnpaid)
	if err != nil {
		logger(ctx).Error("не удалось прочитать сделки", logx.FieldError, err)
		return
	}

	deadline := time.Duration(settings.DealPaymentDeadlineMinutes * float64(time.Minute))

	var expired int
	for i := range deals {
		if !w.overdue(ctx, &deals[i], deadline) {
			continue
		}

		if _, err = w.expirer.Expire(ctx, deals[i].ID); err != nil {
			logger(ctx).Error("не удалось просрочить сделку",
				logx.FieldDealID, deals[i].ID,
				logx.FieldError, err)
			continue
		}

		expired++
		w.notify(ctx, &deals[i])
	}

	if expired > 0 {
		logger(ctx).Info("просрочены неоплаченные сделки", "count", expired)
	}
}

// overdue: сделка со счётом живёт по expires_at самого счёта, плоский дедлайн
// к ней не применяется — кроме случая, когда счёт не удаётся опросить: тогда
// дедлайн работает как консервативный таймаут.
func (w *ExpirySweeper) overdue(ctx context.Context, deal *entity.Deal, deadline time.Duration) bool {
	pastDeadline := deadline > 0 && w.now().Sub(deal.Timestamp) > deadline

	if deal.ProcessingStatus && deal.InvoiceID != "" && w.invoices != nil {
		invoice, err := w.invoices.GetInvoice(ctx, deal.InvoiceID)
		if err != nil {
			logger(ctx).Warn("не удалось проверить счёт",
				logx.FieldInvoiceID, deal.InvoiceID,
				logx.FieldError, err)
			return pastDeadline
		}

		if invoice.Status == entity.InvoiceStatusExpired {
			return true
		}

		return !invoice.ExpiresAt.IsZero() && w.now().After(invoice.ExpiresAt)
	}

	return pastDeadline
}

func (w *ExpirySweeper) notify(ctx context.Context, deal *entity.Deal) {
	text := fmt.Sprintf("Сделка %s просрочена: оплата не поступила вовремя.", deal.ID)
	if err := w.notifier.SendMessage(ctx, deal.UserID, text); err != nil {
		logger(ctx).Error("не доставлено уведомление о просрочке",
			logx.FieldUserID, deal.UserID,
			logx.FieldError, err)
	}
}
