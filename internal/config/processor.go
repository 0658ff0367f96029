package config

import "time"

type Processor struct {
	// anypay либо payok.
	Name string `env:"PROCESSOR_NAME" envDefault:"anypay"`

	AnyPayBaseURL string `env:"ANYPAY_BASE_URL" envDefault:"https://anypay.io/api"`
	AnyPayAPIKey  string `env:"ANYPAY_API_KEY"`

	PayOkBaseURL string `env:"PAYOK_BASE_URL" envDefault:"https://payok.io/api"`
	PayOkAPIKey  string `env:"PAYOK_API_KEY"`

	HTTPTimeout time.Duration `env:"PROCESSOR_TIMEOUT" envDefault:"15s"`
}
