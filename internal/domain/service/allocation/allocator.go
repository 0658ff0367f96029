package allocation

import (
	"context"
	"math/rand"
	"time"

	"github.com/samber/lo"

	"tg_exchange/internal/domain/entity"
)

type DealVolumes interface {
	VolumeForPaymentDetail(ctx context.Context, detailID string, since time.Time) (float64, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (*entity.Settings, error)
	UpdatePaymentDetail(ctx context.Context, detail entity.PaymentDetail) error
}

// Allocator выбирает, какую из настроенных карт показать покупателю,
// балансируя использование и соблюдая кулдауны и лимиты.
type Allocator struct {
	volumes  DealVolumes
	settings SettingsSource
	now      func() time.Time
	rnd      *rand.Rand
}

func NewAllocator(volumes DealVolumes, settings SettingsSource) *Allocator {
	return &Allocator{
		volumes:  volumes,
		settings: settings,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // не криптография
	}
}

// WithClock подменяет источник времени (для тестов).
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// WithRand подменяет источник случайности (для тестов).
func (a *Allocator) WithRand(rnd *rand.Rand) *Allocator {
	a.rnd = rnd
	return a
}

// Pick выбирает карту под сделку на сумму rubAmount или возвращает nil, если
// ни одна не проходит по лимитам и кулдаунам. Метку выдачи Timestamp
// обновляет сам; объёмы карт не хранятся, а пересчитываются сканом сделок.
func (a *Allocator) Pick(ctx context.Context, rubAmount float64) (*entity.PaymentDetail, error) {
	settings, err := a.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	eligible, err := a.eligible(ctx, settings, rubAmount)
	if err != nil {
		return nil, err
	}

	if len(eligible) == 0 {
		return nil, nil //nolint:nilnil // отсутствие карты — штатный исход
	}

	chosen := a.choose(eligible, settings.FairnessSlack())

	chosen.Timestamp = a.now()
	if err := a.settings.UpdatePaymentDetail(ctx, chosen); err != nil {
		return nil, err
	}

	return &chosen, nil
}

func (a *Allocator) eligible(ctx context.Context, settings *entity.Settings, rubAmount float64) ([]entity.PaymentDetail, error) {
	now := a.now()
	resetCooldown := time.Duration(settings.LimitReachedRecoveryHours * float64(time.Hour))
	assignCooldown := time.Duration(settings.DealCreationRecoveryMinutes * float64(time.Minute))

	var eligible []entity.PaymentDetail

	for _, card := range settings.PaymentDetails {
		// Кулдаун после достижения лимита.
		if now.Sub(card.LastReset) < resetCooldown {
			continue
		}

		// Кулдаун после последней выдачи — одна карта не крутится подряд.
		if !card.Timestamp.IsZero() && now.Sub(card.Timestamp) < assignCooldown {
			continue
		}

		volume, err := a.volumes.VolumeForPaymentDetail(ctx, card.ID, card.LastReset)
		if err != nil {
			return nil, err
		}

		if volume+rubAmount > card.LimitReachedRub {
			continue
		}

		eligible = append(eligible, card)
	}

	return eligible, nil
}

// choose реализует рандомизированную балансировку: отстающие карты получают
// шанс 50%, а не гарантированный приоритет, — выравнивание без голодания
// "свежих" карт.
func (a *Allocator) choose(eligible []entity.PaymentDetail, slack int) entity.PaymentDetail {
	maxUsages := lo.MaxBy(eligible, func(x, m entity.PaymentDetail) bool {
		return x.ConfirmedUsages > m.ConfirmedUsages
	}).ConfirmedUsages

	lagging := lo.Filter(eligible, func(card entity.PaymentDetail, _ int) bool {
		return card.ConfirmedUsages < maxUsages-slack
	})

	if len(lagging) == 0 {
		return leastRecentlyAssigned(eligible)
	}

	if a.rnd.Intn(2) == 0 {
		return leastRecentlyAssigned(lagging)
	}

	rest := lo.Filter(eligible, func(card entity.PaymentDetail, _ int) bool {
		return card.ConfirmedUsages >= maxUsages-slack
	})

	return leastRecentlyAssigned(rest)
}

// leastRecentlyAssigned — самая давно выданная карта; при равенстве — с
// меньшим числом подтверждений, затем более старая по времени выдачи.
func leastRecentlyAssigned(cards []entity.PaymentDetail) entity.PaymentDetail {
	best := cards[0]
	for _, card := range cards[1:] {
		switch {
		case card.Timestamp.Before(best.Timestamp):
			best = card
		case card.Timestamp.Equal(best.Timestamp) && card.ConfirmedUsages < best.ConfirmedUsages:
			best = card
		}
	}
	return best
}
