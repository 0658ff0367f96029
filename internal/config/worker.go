package config

import "time"

type Worker struct {
	ExpirySweepInterval time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"1m"`

	InvoicePollInterval time.Duration `env:"INVOICE_POLL_INTERVAL" envDefault:"5m"`
	InvoicePollAttempts int           `env:"INVOICE_POLL_ATTEMPTS" envDefault:"4"`

	// Cron-выражение планировщика рассылок и розыгрышей.
	BroadcastCron string `env:"BROADCAST_CRON" envDefault:"* * * * *"`
}
