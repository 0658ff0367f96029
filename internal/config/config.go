package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       App
	Telegram  Telegram
	Storage   Storage
	PriceFeed PriceFeed
	Server    Server
	Worker    Worker
	Processor Processor
}

type App struct {
	Name    string `env:"APP_NAME" envDefault:"tg-exchange"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
	DevMode bool   `env:"APP_DEV_MODE" envDefault:"false"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
