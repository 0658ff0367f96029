package worker

import (
	"context"
	"sync"
	"time"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/logx"
)

// DealFinisher закрывает сделку по результату опроса счёта.
type DealFinisher interface {
	Complete(ctx context.Context, dealID string) (*entity.Deal, error)
	Expire(ctx context.Context, dealID string) (*entity.Deal, error)
}

type DealGetter interface {
	GetByID(ctx context.Context, id string) (*entity.Deal, error)
}

// PollRegistry ведёт ограниченный опрос счетов по сделкам: не чаще interval,
// не больше attempts попыток на сделку. Cancel идемпотентен; терминальный
// переход сделки снимает опрос.
type PollRegistry struct {
	deals    DealGetter
	invoices InvoiceSource
	finisher DealFinisher

	interval time.Duration
	attempts int

	mu      sync.Mutex
	baseCtx context.Context
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewPollRegistry(
	deals DealGetter,
	invoices InvoiceSource,
	finisher DealFinisher,
	interval time.Duration,
	attempts int,
) *PollRegistry {
	return &PollRegistry{
		deals:    deals,
		invoices: invoices,
		finisher: finisher,
		interval: interval,
		attempts: attempts,
		cancels:  make(map[string]context.CancelFunc),
	}
}

func (r *PollRegistry) Name() string { return "invoice-poll" }

// Run держит реестр живым до отмены контекста, затем дожидается всех опросов.
func (r *PollRegistry) Run(ctx context.Context) error {
	r.mu.Lock()
	r.baseCtx = ctx
	r.mu.Unlock()

	<-ctx.Done()

	r.mu.Lock()
	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = make(map[string]context.CancelFunc)
	r.mu.Unlock()

	r.wg.Wait()

	return ctx.Err()
}

// Watch ставит сделку на опрос. Повторный вызов по той же сделке — ноп.
func (r *PollRegistry) Watch(dealID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.baseCtx == nil || r.baseCtx.Err() != nil {
		return
	}
	if _, ok := r.cancels[dealID]; ok {
		return
	}

	pollCtx, cancel := context.WithCancel(r.baseCtx)
	r.cancels[dealID] = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.Cancel(dealID)

		r.poll(pollCtx, dealID)
	}()
}

// Cancel снимает сделку с опроса. Безопасен для незарегистрированных ID.
func (r *PollRegistry) Cancel(dealID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cancel, ok := r.cancels[dealID]; ok {
		cancel()
		delete(r.cancels, dealID)
	}
}

func (r *PollRegistry) poll(ctx context.Context, dealID string) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= r.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if done := r.checkOnce(ctx, dealID); done {
			return
		}
	}

	logger(ctx).Info("попытки опроса счёта исчерпаны, сделка просрочивается",
		logx.FieldDealID, dealID)

	if _, err := r.finisher.Expire(ctx, dealID); err != nil {
		logger(ctx).Error("не удалось просрочить сделку",
			logx.FieldDealID, dealID,
			logx.FieldError, err)
	}
}

// checkOnce возвращает true, когда опрос пора прекращать.
func (r *PollRegistry) checkOnce(ctx context.Context, dealID string) bool {
	deal, err := r.deals.GetByID(ctx, dealID)
	if err != nil || deal.Status.Terminal() {
		return true
	}
	if deal.InvoiceID == "" {
		return true
	}

	invoice, err := r.invoices.GetInvoice(ctx, deal.InvoiceID)
	if err != nil {
		logger(ctx).Warn("не удалось опросить счёт",
			logx.FieldDealID, dealID,
			logx.FieldInvoiceID, deal.InvoiceID,
			logx.FieldError, err)
		return false
	}

	switch invoice.Status {
	case entity.InvoiceStatusPaid:
		if _, err = r.finisher.Complete(ctx, dealID); err != nil {
			logger(ctx).Error("не удалось закрыть оплаченную сделку",
				logx.FieldDealID, dealID,
				logx.FieldError, err)
		}
		return true
	case entity.InvoiceStatusExpired:
		if _, err = r.finisher.Expire(ctx, dealID); err != nil {
			logger(ctx).Error("не удалось просрочить сделку",
				logx.FieldDealID, dealID,
				logx.FieldError, err)
		}
		return true
	case entity.InvoiceStatusPending:
	}

	return false
}
