package allocation_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/domain/service/allocation"
)

type fakeSettings struct {
	settings entity.Settings
	updated  []entity.PaymentDetail
}

func (f *fakeSettings) Get(context.Context) (*entity.Settings, error) {
	return &f.settings, nil
}

func (f *fakeSettings) UpdatePaymentDetail(_ context.Context, detail entity.PaymentDetail) error {
	f.updated = append(f.updated, detail)
	for i := range f.settings.PaymentDetails {
		if f.settings.PaymentDetails[i].ID == detail.ID {
			f.settings.PaymentDetails[i] = detail
		}
	}
	return nil
}

type fakeVolumes struct {
	byCard map[string]float64
}

func (f *fakeVolumes) VolumeForPaymentDetail(_ context.Context, id string, _ time.Time) (float64, error) {
	return f.byCard[id], nil
}

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newAllocator(settings *fakeSettings, volumes *fakeVolumes) *allocation.Allocator {
	return allocation.NewAllocator(volumes, settings).
		WithClock(func() time.Time { return testNow }).
		WithRand(rand.New(rand.NewSource(1)))
}

func card(id string, usages int, assignedAgo time.Duration) entity.PaymentDetail {
	return entity.PaymentDetail{
		ID:              id,
		Description:     "Сбер " + id,
		LimitReachedRub: 100_000,
		LastReset:       testNow.Add(-48 * time.Hour),
		Timestamp:       testNow.Add(-assignedAgo),
		ConfirmedUsages: usages,
	}
}

func baseSettings(cards ...entity.PaymentDetail) entity.Settings {
	return entity.Settings{
		PaymentDetails:              cards,
		LimitReachedRecoveryHours:   24,
		DealCreationRecoveryMinutes: 30,
		UsageSlack:                  1,
	}
}

func TestPickRespectsVolumeLimit(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	settings := &fakeSettings{settings: baseSettings(
		card("a", 0, time.Hour),
		card("b", 0, 2*time.Hour),
	)}
	volumes := &fakeVolumes{byCard: map[string]float64{"a": 99_000, "b": 10_000}}

	alloc := newAllocator(settings, volumes)

	// Сумма 5000 переполнила бы лимит карты a (99000+5000 > 100000).
	picked, err := alloc.Pick(ctx, 5000)
	rq.NoError(err)
	rq.NotNil(picked)
	rq.Equal("b", picked.ID)
}

func TestPickReturnsNilWhenNothingQualifies(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	settings := &fakeSettings{settings: baseSettings(
		card("a", 0, time.Hour),
	)}
	volumes := &fakeVolumes{byCard: map[string]float64{"a": 99_999}}

	alloc := newAllocator(settings, volumes)

	picked, err := alloc.Pick(ctx, 5000)
	rq.NoError(err)
	rq.Nil(picked)
}

func TestPickRespectsAssignmentCooldown(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	settings := &fakeSettings{settings: baseSettings(
		card("fresh", 0, 5*time.Minute), // выдана 5 минут назад, кулдаун 30
		card("old", 0, time.Hour),
	)}
	volumes := &fakeVolumes{byCard: map[string]float64{}}

	alloc := newAllocator(settings, volumes)

	picked, err := alloc.Pick(ctx, 1000)
	rq.NoError(err)
	rq.NotNil(picked)
	rq.Equal("old", picked.ID)
}

func TestPickRespectsResetCooldown(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	limited := card("limited", 0, time.Hour)
	limited.LastReset = testNow.Add(-time.Hour) // в окне восстановления 24ч

	settings := &fakeSettings{settings: baseSettings(
		limited,
		card("ok", 0, time.Hour),
	)}
	volumes := &fakeVolumes{byCard: map[string]float64{}}

	alloc := newAllocator(settings, volumes)

	picked, err := alloc.Pick(ctx, 1000)
	rq.NoError(err)
	rq.NotNil(picked)
	rq.Equal("ok", picked.ID)
}

func TestPickUpdatesAssignmentTimestamp(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	settings := &fakeSettings{settings: baseSettings(card("a", 0, time.Hour))}
	volumes := &fakeVolumes{byCard: map[string]float64{}}

	alloc := newAllocator(settings, volumes)

	picked, err := alloc.Pick(ctx, 1000)
	rq.NoError(err)
	rq.NotNil(picked)
	rq.Equal(testNow, picked.Timestamp)
	rq.Len(settings.updated, 1)
}

func TestPickNoLaggardsIsDeterministic(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	// Разброс usages в пределах slack — отстающих нет, берётся самая давняя.
	settings := &fakeSettings{settings: baseSettings(
		card("a", 5, time.Hour),
		card("b", 4, 3*time.Hour),
		card("c", 5, 2*time.Hour),
	)}
	volumes := &fakeVolumes{byCard: map[string]float64{}}

	alloc := newAllocator(settings, volumes)

	picked, err := alloc.Pick(ctx, 1000)
	rq.NoError(err)
	rq.Equal("b", picked.ID)
}

func TestPickCoinFlipBetweenLaggingAndRest(t *testing.T) {
	// Сценарий из постановки: A usages=3, B usages=5, slack=1 → A отстаёт.
	// На повторных выборах A выпадает примерно в половине случаев.
	rq := require.New(t)
	ctx := context.Background()

	volumes := &fakeVolumes{byCard: map[string]float64{}}

	const rounds = 400

	var pickedA int
	for i := 0; i < rounds; i++ {
		settings := &fakeSettings{settings: baseSettings(
			card("a", 3, time.Hour),
			card("b", 5, 2*time.Hour),
		)}

		alloc := allocation.NewAllocator(volumes, settings).
			WithClock(func() time.Time { return testNow }).
			WithRand(rand.New(rand.NewSource(int64(i))))

		picked, err := alloc.Pick(ctx, 1000)
		rq.NoError(err)
		rq.NotNil(picked)

		if picked.ID == "a" {
			pickedA++
		}
	}

	ratio := float64(pickedA) / rounds
	rq.InDelta(0.5, ratio, 0.15)
}
