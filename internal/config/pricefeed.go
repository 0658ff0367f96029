package config

import "time"

type PriceFeed struct {
	URL           string        `env:"PRICE_FEED_URL" envDefault:"https://api.coingecko.com/api/v3/simple/price"`
	CacheDuration time.Duration `env:"PRICE_CACHE_DURATION" envDefault:"3m"`
	HTTPTimeout   time.Duration `env:"PRICE_FEED_TIMEOUT" envDefault:"10s"`
}
