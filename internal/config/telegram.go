package config

type Telegram struct {
	Token string `env:"BOT_TOKEN,required"`

	// Чат для сообщений в поддержку и сервисных уведомлений.
	SupportChatID int64 `env:"BOT_SUPPORT_CHAT_ID,required"`

	LongPollTimeout int `env:"BOT_LONG_POLL_TIMEOUT" envDefault:"60"`
}
