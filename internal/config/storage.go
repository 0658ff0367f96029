package config

import "time"

type Storage struct {
	Dir      string        `env:"STORAGE_DIR" envDefault:"./data"`
	CacheTTL time.Duration `env:"STORAGE_CACHE_TTL" envDefault:"3s"`
}
