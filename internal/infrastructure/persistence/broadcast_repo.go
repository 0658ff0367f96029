package persistence

import (
	"context"
	"time"

	"tg_exchange/internal/domain/entity"
)

type BroadcastRepository struct {
	store *Store
}

func NewBroadcastRepository(store *Store) *BroadcastRepository {
	return &BroadcastRepository{store: store}
}

// ListDue возвращает неотправленные рассылки, чьё время наступило.
func (r *BroadcastRepository) ListDue(_ context.Context, now time.Time) ([]entity.Broadcast, error) {
	var broadcasts []entity.Broadcast
	if err := r.store.Load(CollectionBroadcasts, &broadcasts); err != nil {
		return nil, err
	}

	var due []entity.Broadcast
	for i := range broadcasts {
		if !broadcasts[i].Sent && !broadcasts[i].SendAt.After(now) {
			due = append(due, broadcasts[i])
		}
	}

	return due, nil
}

func (r *BroadcastRepository) Save(_ context.Context, b *entity.Broadcast) error {
	lock := r.store.Locker(CollectionBroadcasts)
	lock.Lock()
	defer lock.Unlock()

	var broadcasts []entity.Broadcast
	if err := r.store.Load(CollectionBroadcasts, &broadcasts); err != nil {
		return err
	}

	for i := range broadcasts {
		if broadcasts[i].ID == b.ID {
			broadcasts[i] = *b
			return r.store.Save(CollectionBroadcasts, broadcasts)
		}
	}

	broadcasts = append(broadcasts, *b)

	return r.store.Save(CollectionBroadcasts, broadcasts)
}

type RaffleRepository struct {
	store *Store
}

func NewRaffleRepository(store *Store) *RaffleRepository {
	return &RaffleRepository{store: store}
}

// ListDue возвращает незавершённые розыгрыши, чей срок вышел.
func (r *RaffleRepository) ListDue(_ context.Context, now time.Time) ([]entity.Raffle, error) {
	var raffles []entity.Raffle
	if err := r.store.Load(CollectionRaffles, &raffles); err != nil {
		return nil, err
	}

	var due []entity.Raffle
	for i := range raffles {
		if !raffles[i].Finished && !raffles[i].EndsAt.After(now) {
			due = append(due, raffles[i])
		}
	}

	return due, nil
}

func (r *RaffleRepository) Save(_ context.Context, raffle *entity.Raffle) error {
	lock := r.store.Locker(CollectionRaffles)
	lock.Lock()
	defer lock.Unlock()

	var raffles []entity.Raffle
	if err := r.store.Load(CollectionRaffles, &raffles); err != nil {
		return err
	}

	for i := range raffles {
		if raffles[i].ID == raffle.ID {
			raffles[i] = *raffle
			return r.store.Save(CollectionRaffles, raffles)
		}
	}

	raffles = append(raffles, *raffle)

	return r.store.Save(CollectionRaffles, raffles)
}
