package worker

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/logx"
)

type BroadcastSource interface {
	ListDue(ctx context.Context, now time.Time) ([]entity.Broadcast, error)
	Save(ctx context.Context, b *entity.Broadcast) error
}

type RaffleSource interface {
	ListDue(ctx context.Context, now time.Time) ([]entity.Raffle, error)
	Save(ctx context.Context, raffle *entity.Raffle) error
}

type UserSource interface {
	List(ctx context.Context) ([]entity.User, error)
}

// BroadcastNotifier — доставка рассылок: с картинкой или текстом.
type BroadcastNotifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error
}

// BroadcastScheduler по cron-расписанию рассылает назревшие рассылки и
// подводит итоги розыгрышей. Пересечение запусков гасится busy-флагом.
type BroadcastScheduler struct {
	broadcasts BroadcastSource
	raffles    RaffleSource
	users      UserSource
	notifier   BroadcastNotifier

	cronSpec string
	busy     atomic.Bool
	rnd      *rand.Rand
	now      func() time.Time
}

func NewBroadcastScheduler(
	broadcasts BroadcastSource,
	raffles RaffleSource,
	users UserSource,
	notifier BroadcastNotifier,
	cronSpec string,
) *BroadcastScheduler {
	return &BroadcastScheduler{
		broadcasts: broadcasts,
		raffles:    raffles,
		users:      users,
		notifier:   notifier,
		cronSpec:   cronSpec,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // не криптография
		now:        time.Now,
	}
}

func (w *BroadcastScheduler) WithRand(rnd *rand.Rand) *BroadcastScheduler {
	w.rnd = rnd
	return w
}

func (w *BroadcastScheduler) WithClock(now func() time.Time) *BroadcastScheduler {
	w.now = now
	return w
}

func (w *BroadcastScheduler) Name() string { return "broadcast-scheduler" }

func (w *BroadcastScheduler) Run(ctx context.Context) error {
	c := cron.New()

	_, err := c.AddFunc(w.cronSpec, func() {
		if !w.busy.CompareAndSwap(false, true) {
			return
		}
		defer w.busy.Store(false)

		w.Fire(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	c.Start()
	<-ctx.Done()

	<-c.Stop().Done()

	return ctx.Err()
}

// Fire — один запуск: рассылки, затем розыгрыши.
func (w *BroadcastScheduler) Fire(ctx context.Context) {
	w.fireBroadcasts(ctx)
	w.fireRaffles(ctx)
}

func (w *BroadcastScheduler) fireBroadcasts(ctx context.Context) {
	due, err := w.broadcasts.ListDue(ctx, w.now())
	if err != nil {
		logger(ctx).Error("не удалось прочитать рассылки", logx.FieldError, err)
		return
	}

	for i := range due {
		b := due[i]

		audience, err := w.audience(ctx, b.Audience)
		if err != nil {
			logger(ctx).Error("не удалось собрать аудиторию", logx.FieldError, err)
			return
		}

		for _, chatID := range audience {
			if b.PhotoID != "" {
				err = w.notifier.SendPhoto(ctx, chatID, b.PhotoID, b.Text)
			} else {
				err = w.notifier.SendMessage(ctx, chatID, b.Text)
			}
			if err != nil {
				logger(ctx).Warn("не доставлена рассылка",
					logx.FieldChatID, chatID,
					logx.FieldError, err)
			}
		}

		b.Sent = true
		if err = w.broadcasts.Save(ctx, &b); err != nil {
			logger(ctx).Error("не удалось пометить рассылку отправленной", logx.FieldError, err)
		}
	}
}

func (w *BroadcastScheduler) fireRaffles(ctx context.Context) {
	due, err := w.raffles.ListDue(ctx, w.now())
	if err != nil {
		logger(ctx).Error("не удалось прочитать розыгрыши", logx.FieldError, err)
		return
	}

	for i := range due {
		raffle := due[i]

		if len(raffle.Participants) > 0 {
			raffle.WinnerID = raffle.Participants[w.rnd.Intn(len(raffle.Participants))]
		}
		raffle.Finished = true

		if err = w.raffles.Save(ctx, &raffle); err != nil {
			logger(ctx).Error("не удалось закрыть розыгрыш", logx.FieldError, err)
			continue
		}

		if raffle.WinnerID != 0 {
			text := fmt.Sprintf("🎉 Вы выиграли в розыгрыше «%s»!", raffle.Title)
			if err = w.notifier.SendMessage(ctx, raffle.WinnerID, text); err != nil {
				logger(ctx).Warn("не доставлено уведомление победителю",
					logx.FieldUserID, raffle.WinnerID,
					logx.FieldError, err)
			}
		}
	}
}

func (w *BroadcastScheduler) audience(ctx context.Context, explicit []int64) ([]int64, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	users, err := w.users.List(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		if !u.IsBlocked {
			ids = append(ids, u.ID)
		}
	}

	return ids, nil
}
