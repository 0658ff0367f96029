package entity

import "time"

// Broadcast — отложенная рассылка; отправка по cron-расписанию планировщика.
type Broadcast struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	PhotoID  string    `json:"photoId,omitempty"`
	SendAt   time.Time `json:"sendAt"`
	Sent     bool      `json:"sent"`
	Audience []int64   `json:"audience,omitempty"` // пусто = всем
}

// Raffle — розыгрыш со случайным победителем среди участников.
type Raffle struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Participants []int64   `json:"participants"`
	EndsAt       time.Time `json:"endsAt"`
	WinnerID     int64     `json:"winnerId,omitempty"`
	Finished     bool      `json:"finished"`
}
