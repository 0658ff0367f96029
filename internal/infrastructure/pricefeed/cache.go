package pricefeed

import (
	"context"
	"errors"
	"sync"
	"time"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/contextx"
	"tg_exchange/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Захардкоженные стартовые курсы — отдаются до первого удачного запроса.
var defaultRates = map[entity.Currency]float64{ //nolint:gochecknoglobals
	entity.CurrencyBTC: 8_200_000,
	entity.CurrencyLTC: 8_000,
}

const retryAfterTooManyRequests = 5 * time.Second

type ratesClient interface {
	FetchRates(ctx context.Context) (map[entity.Currency]float64, error)
}

// Cache держит последние известные курсы. Обновляется не чаще CacheDuration,
// по ошибке фида отдаёт последнее известное значение; наружу ошибки не
// отдаются никогда.
type Cache struct {
	client        ratesClient
	cacheDuration time.Duration
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration)

	mu             sync.Mutex
	rates          map[entity.Currency]float64
	lastUpdate     time.Time
	refreshing     bool
}

func NewCache(client ratesClient, cacheDuration time.Duration) *Cache {
	rates := make(map[entity.Currency]float64, len(defaultRates))
	for currency, rate := range defaultRates {
		rates[currency] = rate
	}

	return &Cache{
		client:        client,
		cacheDuration: cacheDuration,
		now:           time.Now,
		sleep:         sleepCtx,
		rates:         rates,
	}
}

// WithClock подменяет источник времени (для тестов).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// WithSleep подменяет паузу ретрая (для тестов).
func (c *Cache) WithSleep(sleep func(ctx context.Context, d time.Duration)) *Cache {
	c.sleep = sleep
	return c
}

// Rate возвращает лучший известный курс валюты к рублю и признак того, что
// значение устарело. Сетевой запрос делается не чаще cacheDuration.
func (c *Cache) Rate(ctx context.Context, currency entity.Currency) (rub float64, stale bool) {
	c.mu.Lock()
	fresh := c.now().Sub(c.lastUpdate) < c.cacheDuration
	inFlight := c.refreshing
	c.mu.Unlock()

	if !fresh && !inFlight {
		c.Refresh(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rates[currency], c.now().Sub(c.lastUpdate) >= c.cacheDuration
}

// Refresh делает один запрос к фиду; на 429 ждёт и повторяет один раз.
// Конкурентные вызовы схлопываются: пока запрос в полёте, остальные
// возвращаются сразу со старым значением.
func (c *Cache) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()

	rates, err := c.client.FetchRates(ctx)
	if errors.Is(err, ErrTooManyRequests) {
		c.sleep(ctx, retryAfterTooManyRequests)
		rates, err = c.client.FetchRates(ctx)
	}

	if err != nil {
		logger(ctx).Warn("price feed refresh failed, serving cached rates", logx.Error(err))
		return
	}

	c.mu.Lock()
	c.rates = rates
	c.lastUpdate = c.now()
	c.mu.Unlock()
}

// Name реализует modules.Runner.
func (c *Cache) Name() string { return "price-cache" }

// Run — фоновое проактивное обновление с тем же интервалом, независимо от
// входящего трафика.
func (c *Cache) Run(ctx context.Context) error {
	c.Refresh(ctx)

	ticker := time.NewTicker(c.cacheDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
