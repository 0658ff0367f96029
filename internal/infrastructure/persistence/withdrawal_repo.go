package persistence

import (
	"context"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/errcodes"
)

type WithdrawalRepository struct {
	store *Store
}

// NewWithdrawalRepository создаёт новый экземпляр репозитория.
func NewWithdrawalRepository(store *Store) *WithdrawalRepository {
	return &WithdrawalRepository{store: store}
}

func (r *WithdrawalRepository) load() ([]entity.Withdrawal, error) {
	var withdrawals []entity.Withdrawal
	if err := r.store.Load(CollectionWithdrawals, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// GetByID возвращает заявку на вывод.
func (r *WithdrawalRepository) GetByID(_ context.Context, id string) (*entity.Withdrawal, error) {
	withdrawals, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range withdrawals {
		if withdrawals[i].ID == id {
			return &withdrawals[i], nil
		}
	}

	return nil, domain.NewError(errcodes.WithdrawalNotFound, "withdrawal not found")
}

// List возвращает все заявки.
func (r *WithdrawalRepository) List(_ context.Context) ([]entity.Withdrawal, error) {
	return r.load()
}

// ListByStatus возвращает заявки в заданном статусе.
func (r *WithdrawalRepository) ListByStatus(_ context.Context, status entity.WithdrawalStatus) ([]entity.Withdrawal, error) {
	withdrawals, err := r.load()
	if err != nil {
		return nil, err
	}

	var result []entity.Withdrawal
	for i := range withdrawals {
		if withdrawals[i].Status == status {
			result = append(result, withdrawals[i])
		}
	}

	return result, nil
}

// Save создаёт или обновляет заявку.
func (r *WithdrawalRepository) Save(_ context.Context, w *entity.Withdrawal) error {
	lock := r.store.Locker(CollectionWithdrawals)
	lock.Lock()
	defer lock.Unlock()

	withdrawals, err := r.load()
	if err != nil {
		return err
	}

	for i := range withdrawals {
		if withdrawals[i].ID == w.ID {
			withdrawals[i] = *w
			return r.store.Save(CollectionWithdrawals, withdrawals)
		}
	}

	withdrawals = append(withdrawals, *w)

	return r.store.Save(CollectionWithdrawals, withdrawals)
}

// DeleteByUser — каскад при удалении пользователя.
func (r *WithdrawalRepository) DeleteByUser(_ context.Context, userID int64) error {
	lock := r.store.Locker(CollectionWithdrawals)
	lock.Lock()
	defer lock.Unlock()

	withdrawals, err := r.load()
	if err != nil {
		return err
	}

	kept := withdrawals[:0]
	for i := range withdrawals {
		if withdrawals[i].UserID != userID {
			kept = append(kept, withdrawals[i])
		}
	}

	return r.store.Save(CollectionWithdrawals, kept)
}
