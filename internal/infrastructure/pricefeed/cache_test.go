package pricefeed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/infrastructure/pricefeed"
)

type fakeFeed struct {
	rates map[entity.Currency]float64
	err   error
	calls int

	// errOnce: первая попытка падает указанной ошибкой, вторая успешна.
	errOnce error
}

func (f *fakeFeed) FetchRates(context.Context) (map[entity.Currency]float64, error) {
	f.calls++

	if f.errOnce != nil {
		err := f.errOnce
		f.errOnce = nil
		return nil, err
	}

	if f.err != nil {
		return nil, f.err
	}

	return f.rates, nil
}

func newTestCache(feed *fakeFeed, now *time.Time) *pricefeed.Cache {
	return pricefeed.NewCache(feed, 3*time.Minute).
		WithClock(func() time.Time { return *now }).
		WithSleep(func(context.Context, time.Duration) {})
}

func TestCacheServesDefaultsBeforeFirstFetch(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Now()
	feed := &fakeFeed{err: errors.New("feed down")}
	cache := newTestCache(feed, &now)

	rate, stale := cache.Rate(ctx, entity.CurrencyBTC)
	rq.InDelta(8_200_000, rate, 1e-9)
	rq.True(stale)
}

func TestCacheNoNetworkCallWithinDuration(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Now()
	feed := &fakeFeed{rates: map[entity.Currency]float64{
		entity.CurrencyBTC: 9_000_000,
		entity.CurrencyLTC: 9_500,
	}}
	cache := newTestCache(feed, &now)

	first, stale := cache.Rate(ctx, entity.CurrencyBTC)
	rq.InDelta(9_000_000, first, 1e-9)
	rq.False(stale)
	rq.Equal(1, feed.calls)

	// Повторные запросы внутри окна — то же значение, без сети.
	for i := 0; i < 5; i++ {
		rate, stale := cache.Rate(ctx, entity.CurrencyBTC)
		rq.Equal(first, rate)
		rq.False(stale)
	}
	rq.Equal(1, feed.calls)

	// Окно истекло — новый запрос.
	now = now.Add(4 * time.Minute)
	cache.Rate(ctx, entity.CurrencyBTC)
	rq.Equal(2, feed.calls)
}

func TestCacheFallsBackToLastKnownOnFailure(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Now()
	feed := &fakeFeed{rates: map[entity.Currency]float64{
		entity.CurrencyBTC: 9_000_000,
		entity.CurrencyLTC: 9_500,
	}}
	cache := newTestCache(feed, &now)

	cache.Rate(ctx, entity.CurrencyBTC)

	feed.err = errors.New("feed down")
	now = now.Add(4 * time.Minute)

	rate, stale := cache.Rate(ctx, entity.CurrencyLTC)
	rq.InDelta(9_500, rate, 1e-9)
	rq.True(stale)
}

func TestCacheRetriesOnceAfter429(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Now()
	feed := &fakeFeed{
		rates:   map[entity.Currency]float64{entity.CurrencyBTC: 8_500_000, entity.CurrencyLTC: 8_100},
		errOnce: pricefeed.ErrTooManyRequests,
	}
	cache := newTestCache(feed, &now)

	rate, _ := cache.Rate(ctx, entity.CurrencyBTC)
	rq.InDelta(8_500_000, rate, 1e-9)
	rq.Equal(2, feed.calls)
}
