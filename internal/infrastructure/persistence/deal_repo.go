package persistence

import (
	"context"
	"time"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/errcodes"
)

type DealRepository struct {
	store *Store
}

// NewDealRepository создаёт новый экземпляр репозитория.
func NewDealRepository(store *Store) *DealRepository {
	return &DealRepository{store: store}
}

func (r *DealRepository) load() ([]entity.Deal, error) {
	var deals []entity.Deal
	if err := r.store.Load(CollectionDeals, &deals); err != nil {
		return nil, err
	}

	return deals, nil
}

// loadIndexed дополняет load вторичным индексом по userId. Индекс строится
// локально на каждый вызов: репозиторий дёргают конкурентно хендлеры бота и
// фоновые воркеры, общее состояние здесь недопустимо.
func (r *DealRepository) loadIndexed() ([]entity.Deal, map[int64][]int, error) {
	deals, err := r.load()
	if err != nil {
		return nil, nil, err
	}

	index := make(map[int64][]int, len(deals))
	for i := range deals {
		index[deals[i].UserID] = append(index[deals[i].UserID], i)
	}

	return deals, index, nil
}

// GetByID возвращает сделку по идентификатору.
func (r *DealRepository) GetByID(_ context.Context, id string) (*entity.Deal, error) {
	deals, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range deals {
		if deals[i].ID == id {
			return &deals[i], nil
		}
	}

	return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
}

// List возвращает все сделки.
func (r *DealRepository) List(_ context.Context) ([]entity.Deal, error) {
	return r.load()
}

// ListByUser возвращает сделки пользователя.
func (r *DealRepository) ListByUser(_ context.Context, userID int64) ([]entity.Deal, error) {
	deals, index, err := r.loadIndexed()
	if err != nil {
		return nil, err
	}

	indices := index[userID]
	result := make([]entity.Deal, 0, len(indices))
	for _, i := range indices {
		result = append(result, deals[i])
	}

	return result, nil
}

// ListByStatus возвращает сделки в перечисленных статусах.
func (r *DealRepository) ListByStatus(_ context.Context, statuses ...entity.DealStatus) ([]entity.Deal, error) {
	deals, err := r.load()
	if err != nil {
		return nil, err
	}

	var result []entity.Deal
	for i := range deals {
		for _, st := range statuses {
			if deals[i].Status == st {
				result = append(result, deals[i])
				break
			}
		}
	}

	return result, nil
}

// VolumeForPaymentDetail считает RUB-объём, прошедший через карту с момента
// её сброса. Агрегат производный: пересчитывается сканом, а не хранится, —
// так частичные сбои не копят дрейф.
func (r *DealRepository) VolumeForPaymentDetail(_ context.Context, detailID string, since time.Time) (float64, error) {
	deals, err := r.load()
	if err != nil {
		return 0, err
	}

	var volume float64
	for i := range deals {
		d := &deals[i]
		if d.SelectedPaymentDetailsID == nil || *d.SelectedPaymentDetailsID != detailID {
			continue
		}
		if d.Timestamp.Before(since) {
			continue
		}
		switch d.Status {
		case entity.DealStatusUnpaid, entity.DealStatusPending, entity.DealStatusCompleted:
			volume += d.RubAmount
		}
	}

	return volume, nil
}

// CompletedTurnover — пожизненный RUB-оборот завершённых сделок пользователя.
func (r *DealRepository) CompletedTurnover(_ context.Context, userID int64) (float64, error) {
	deals, index, err := r.loadIndexed()
	if err != nil {
		return 0, err
	}

	var turnover float64
	for _, i := range index[userID] {
		if deals[i].Status == entity.DealStatusCompleted {
			turnover += deals[i].RubAmount
		}
	}

	return turnover, nil
}

// CompletedInMonth — число завершённых сделок пользователя в календарном
// месяце момента now.
func (r *DealRepository) CompletedInMonth(_ context.Context, userID int64, now time.Time) (int, error) {
	deals, index, err := r.loadIndexed()
	if err != nil {
		return 0, err
	}

	year, month := now.Year(), now.Month()

	var count int
	for _, i := range index[userID] {
		d := &deals[i]
		if d.Status != entity.DealStatusCompleted {
			continue
		}
		if d.Timestamp.Year() == year && d.Timestamp.Month() == month {
			count++
		}
	}

	return count, nil
}

// Save создаёт или обновляет сделку.
func (r *DealRepository) Save(_ context.Context, deal *entity.Deal) error {
	lock := r.store.Locker(CollectionDeals)
	lock.Lock()
	defer lock.Unlock()

	deals, err := r.load()
	if err != nil {
		return err
	}

	for i := range deals {
		if deals[i].ID == deal.ID {
			deals[i] = *deal
			return r.store.Save(CollectionDeals, deals)
		}
	}

	deals = append(deals, *deal)

	return r.store.Save(CollectionDeals, deals)
}

// Delete удаляет сделку (отмена — это tombstone, статус не сохраняется).
func (r *DealRepository) Delete(_ context.Context, id string) error {
	lock := r.store.Locker(CollectionDeals)
	lock.Lock()
	defer lock.Unlock()

	deals, err := r.load()
	if err != nil {
		return err
	}

	for i := range deals {
		if deals[i].ID == id {
			deals = append(deals[:i], deals[i+1:]...)
			return r.store.Save(CollectionDeals, deals)
		}
	}

	return domain.NewError(errcodes.DealNotFound, "deal not found")
}

// DeleteByUser удаляет все сделки пользователя (каскад при удалении юзера).
func (r *DealRepository) DeleteByUser(_ context.Context, userID int64) error {
	lock := r.store.Locker(CollectionDeals)
	lock.Lock()
	defer lock.Unlock()

	deals, err := r.load()
	if err != nil {
		return err
	}

	kept := deals[:0]
	for i := range deals {
		if deals[i].UserID != userID {
			kept = append(kept, deals[i])
		}
	}

	return r.store.Save(CollectionDeals, kept)
}
