package notifier

import (
	"context"
	"sync"
)

// Recorder — Gateway для тестов: копит отправленное в памяти.
type Recorder struct {
	mu       sync.Mutex
	Messages map[int64][]string
	Photos   map[int64][]string
	Deleted  map[int64][]int
}

func NewRecorder() *Recorder {
	return &Recorder{
		Messages: make(map[int64][]string),
		Photos:   make(map[int64][]string),
		Deleted:  make(map[int64][]int),
	}
}

func (r *Recorder) SendMessage(_ context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Messages[chatID] = append(r.Messages[chatID], text)
	return nil
}

func (r *Recorder) SendPhoto(_ context.Context, chatID int64, photoURL, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Photos[chatID] = append(r.Photos[chatID], photoURL)
	r.Messages[chatID] = append(r.Messages[chatID], caption)
	return nil
}

func (r *Recorder) EditCaption(_ context.Context, chatID int64, _ int, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Messages[chatID] = append(r.Messages[chatID], caption)
	return nil
}

func (r *Recorder) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Deleted[chatID] = append(r.Deleted[chatID], messageID)
	return nil
}

// SentTo возвращает копию сообщений чата.
func (r *Recorder) SentTo(chatID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.Messages[chatID]))
	copy(out, r.Messages[chatID])
	return out
}

// PhotosTo возвращает копию отправленных в чат картинок.
func (r *Recorder) PhotosTo(chatID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.Photos[chatID]))
	copy(out, r.Photos[chatID])
	return out
}
