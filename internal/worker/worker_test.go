package worker_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/infrastructure/notifier"
	"tg_exchange/internal/worker"
	"tg_exchange/pkg/errcodes"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

type memDeals struct {
	mu   sync.Mutex
	byID map[string]entity.Deal
}

func newMemDeals(deals ...entity.Deal) *memDeals {
	m := &memDeals{byID: make(map[string]entity.Deal)}
	for _, d := range deals {
		m.byID[d.ID] = d
	}
	return m
}

func (m *memDeals) GetByID(_ context.Context, id string) (*entity.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.byID[id]; ok {
		return &d, nil
	}
	return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
}

func (m *memDeals) ListByStatus(_ context.Context, statuses ...entity.DealStatus) ([]entity.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.Deal
	for _, d := range m.byID {
		for _, s := range statuses {
			if d.Status == s {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (m *memDeals) setStatus(id string, status entity.DealStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.byID[id]
	d.Status = status
	m.byID[id] = d
}

type finisherStub struct {
	deals *memDeals

	mu        sync.Mutex
	completed []string
	expired   []string
}

func (f *finisherStub) Complete(_ context.Context, dealID string) (*entity.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, dealID)
	f.deals.setStatus(dealID, entity.DealStatusCompleted)
	return nil, nil //nolint:nilnil
}

func (f *finisherStub) Expire(_ context.Context, dealID string) (*entity.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, dealID)
	f.deals.setStatus(dealID, entity.DealStatusExpired)
	return nil, nil //nolint:nilnil
}

func (f *finisherStub) expiredIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.expired...)
}

func (f *finisherStub) completedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.completed...)
}

type settingsStub struct{ settings entity.Settings }

func (s settingsStub) Get(context.Context) (*entity.Settings, error) {
	cp := s.settings
	return &cp, nil
}

type invoiceStub struct {
	mu       sync.Mutex
	invoices map[string]entity.Invoice
	fail     bool
}

func (s *invoiceStub) GetInvoice(_ context.Context, id string) (*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, domain.NewError(errcodes.ProcessorUnavailable, "processor unavailable")
	}
	if inv, ok := s.invoices[id]; ok {
		return &inv, nil
	}
	return nil, domain.NewError(errcodes.InvoiceNotFound, "invoice not found")
}

func TestSweepExpiresOverdueDeals(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	deals := newMemDeals(
		entity.Deal{ID: "old", UserID: 1, Status: entity.DealStatusUnpaid, Timestamp: testNow.Add(-2 * time.Hour)},
		entity.Deal{ID: "fresh", UserID: 2, Status: entity.DealStatusUnpaid, Timestamp: testNow.Add(-5 * time.Minute)},
		entity.Deal{ID: "pending", UserID: 3, Status: entity.DealStatusPending, Timestamp: testNow.Add(-2 * time.Hour)},
	)
	finisher := &finisherStub{deals: deals}
	rec := notifier.NewRecorder()

	sweeper := worker.NewExpirySweeper(deals, finisher,
		settingsStub{settings: entity.Settings{DealPaymentDeadlineMinutes: 30}},
		rec, time.Minute).
		WithClock(func() time.Time { return testNow })

	sweeper.Sweep(ctx)

	rq.Equal([]string{"old"}, finisher.expiredIDs())
	rq.Len(rec.SentTo(1), 1)
	rq.Empty(rec.SentTo(2))
}

func TestSweepExpiresByInvoice(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	deals := newMemDeals(entity.Deal{
		ID:               "d1",
		UserID:           1,
		Status:           entity.DealStatusUnpaid,
		Timestamp:        testNow.Add(-5 * time.Minute),
		ProcessingStatus: true,
		InvoiceID:        "inv-1",
	})
	finisher := &finisherStub{deals: deals}
	invoices := &invoiceStub{invoices: map[string]entity.Invoice{
		"inv-1": {ID: "inv-1", Status: entity.InvoiceStatusExpired},
	}}

	sweeper := worker.NewExpirySweeper(deals, finisher,
		settingsStub{settings: entity.Settings{DealPaymentDeadlineMinutes: 60}},
		notifier.NewRecorder(), time.Minute).
		WithInvoices(invoices).
		WithClock(func() time.Time { return testNow })

	sweeper.Sweep(ctx)

	rq.Equal([]string{"d1"}, finisher.expiredIDs())
}

func TestSweepKeepsDealWithHealthyInvoice(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	// Сделка давно за плоским дедлайном, но счёт жив и его expires_at позже:
	// судьбу сделки решает счёт, а не дедлайн.
	deals := newMemDeals(entity.Deal{
		ID:               "d1",
		UserID:           1,
		Status:           entity.DealStatusUnpaid,
		Timestamp:        testNow.Add(-2 * time.Hour),
		ProcessingStatus: true,
		InvoiceID:        "inv-1",
	})
	finisher := &finisherStub{deals: deals}
	invoices := &invoiceStub{invoices: map[string]entity.Invoice{
		"inv-1": {ID: "inv-1", Status: entity.InvoiceStatusPending, ExpiresAt: testNow.Add(time.Hour)},
	}}

	sweeper := worker.NewExpirySweeper(deals, finisher,
		settingsStub{settings: entity.Settings{DealPaymentDeadlineMinutes: 30}},
		notifier.NewRecorder(), time.Minute).
		WithInvoices(invoices).
		WithClock(func() time.Time { return testNow })

	sweeper.Sweep(ctx)

	rq.Empty(finisher.expiredIDs())

	// Счёт перестал опрашиваться — дедлайн остаётся консервативным таймаутом.
	invoices.fail = true
	sweeper.Sweep(ctx)

	rq.Equal([]string{"d1"}, finisher.expiredIDs())
}

func TestPollRegistryCompletesPaidDeal(t *testing.T) {
	rq := require.New(t)

	deals := newMemDeals(entity.Deal{ID: "d1", Status: entity.DealStatusUnpaid, InvoiceID: "inv-1"})
	finisher := &finisherStub{deals: deals}
	invoices := &invoiceStub{invoices: map[string]entity.Invoice{
		"inv-1": {ID: "inv-1", Status: entity.InvoiceStatusPaid},
	}}

	registry := worker.NewPollRegistry(deals, invoices, finisher, 10*time.Millisecond, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = registry.Run(ctx)
		close(done)
	}()

	// Ждём, пока Run захватит базовый контекст.
	time.Sleep(10 * time.Millisecond)

	registry.Watch("d1")

	rq.Eventually(func() bool {
		return len(finisher.completedIDs()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestPollRegistryExpiresAfterAttempts(t *testing.T) {
	rq := require.New(t)

	deals := newMemDeals(entity.Deal{ID: "d1", Status: entity.DealStatusUnpaid, InvoiceID: "inv-1"})
	finisher := &finisherStub{deals: deals}
	invoices := &invoiceStub{invoices: map[string]entity.Invoice{
		"inv-1": {ID: "inv-1", Status: entity.InvoiceStatusPending},
	}}

	registry := worker.NewPollRegistry(deals, invoices, finisher, 5*time.Millisecond, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = registry.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)

	registry.Watch("d1")

	// Счёт так и не оплачен: после исчерпания попыток сделка просрочивается.
	rq.Eventually(func() bool {
		return len(finisher.expiredIDs()) == 1
	}, time.Second, 5*time.Millisecond)
	rq.Empty(finisher.completedIDs())
	rq.Equal([]string{"d1"}, finisher.expiredIDs())

	// Cancel по уже снятой сделке безвреден.
	registry.Cancel("d1")
	registry.Cancel("d1")

	cancel()
	<-done
}

type memBroadcasts struct {
	items []entity.Broadcast
}

func (m *memBroadcasts) ListDue(_ context.Context, now time.Time) ([]entity.Broadcast, error) {
	var out []entity.Broadcast
	for _, b := range m.items {
		if !b.Sent && !b.SendAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBroadcasts) Save(_ context.Context, b *entity.Broadcast) error {
	for i := range m.items {
		if m.items[i].ID == b.ID {
			m.items[i] = *b
		}
	}
	return nil
}

type memRaffles struct {
	items []entity.Raffle
}

func (m *memRaffles) ListDue(_ context.Context, now time.Time) ([]entity.Raffle, error) {
	var out []entity.Raffle
	for _, r := range m.items {
		if !r.Finished && !r.EndsAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRaffles) Save(_ context.Context, raffle *entity.Raffle) error {
	for i := range m.items {
		if m.items[i].ID == raffle.ID {
			m.items[i] = *raffle
		}
	}
	return nil
}

type memUsers struct {
	users []entity.User
}

func (m *memUsers) List(context.Context) ([]entity.User, error) {
	return m.users, nil
}

func TestSchedulerFiresDueBroadcast(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	broadcasts := &memBroadcasts{items: []entity.Broadcast{
		{ID: "b1", Text: "привет", SendAt: testNow.Add(-time.Minute)},
		{ID: "b2", Text: "рано", SendAt: testNow.Add(time.Hour)},
	}}
	users := &memUsers{users: []entity.User{
		{ID: 1},
		{ID: 2, IsBlocked: true},
		{ID: 3},
	}}
	rec := notifier.NewRecorder()

	scheduler := worker.NewBroadcastScheduler(broadcasts, &memRaffles{}, users, rec, "* * * * *").
		WithClock(func() time.Time { return testNow })

	scheduler.Fire(ctx)

	rq.Equal([]string{"привет"}, rec.SentTo(1))
	rq.Empty(rec.SentTo(2))
	rq.Equal([]string{"привет"}, rec.SentTo(3))
	rq.True(broadcasts.items[0].Sent)
	rq.False(broadcasts.items[1].Sent)
}

func TestSchedulerSendsPhotoBroadcast(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	broadcasts := &memBroadcasts{items: []entity.Broadcast{
		{ID: "b1", Text: "акция", PhotoID: "https://cdn/banner.png", SendAt: testNow.Add(-time.Minute)},
	}}
	users := &memUsers{users: []entity.User{{ID: 1}}}
	rec := notifier.NewRecorder()

	scheduler := worker.NewBroadcastScheduler(broadcasts, &memRaffles{}, users, rec, "* * * * *").
		WithClock(func() time.Time { return testNow })

	scheduler.Fire(ctx)

	rq.Equal([]string{"https://cdn/banner.png"}, rec.PhotosTo(1))
	rq.Equal([]string{"акция"}, rec.SentTo(1))
	rq.True(broadcasts.items[0].Sent)
}

func TestSchedulerFinishesRaffle(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	raffles := &memRaffles{items: []entity.Raffle{
		{ID: "r1", Title: "Розыгрыш", Participants: []int64{10, 20, 30}, EndsAt: testNow.Add(-time.Minute)},
	}}
	rec := notifier.NewRecorder()

	scheduler := worker.NewBroadcastScheduler(&memBroadcasts{}, raffles, &memUsers{}, rec, "* * * * *").
		WithClock(func() time.Time { return testNow }).
		WithRand(rand.New(rand.NewSource(3)))

	scheduler.Fire(ctx)

	rq.True(raffles.items[0].Finished)
	rq.Contains([]int64{10, 20, 30}, raffles.items[0].WinnerID)
	rq.Len(rec.SentTo(raffles.items[0].WinnerID), 1)
}
