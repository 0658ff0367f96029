package persistence

import (
	"context"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/errcodes"
)

type UserRepository struct {
	store *Store
}

// NewUserRepository создаёт новый экземпляр репозитория.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) load() ([]entity.User, error) {
	var users []entity.User
	if err := r.store.Load(CollectionUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID возвращает пользователя по идентификатору чата.
func (r *UserRepository) GetByID(_ context.Context, id int64) (*entity.User, error) {
	users, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}

	return nil, domain.NewError(errcodes.UserNotFound, "user not found")
}

// GetByReferralID ищет пользователя по реферальному токену.
func (r *UserRepository) GetByReferralID(_ context.Context, referralID string) (*entity.User, error) {
	users, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].ReferralID == referralID {
			return &users[i], nil
		}
	}

	return nil, domain.NewError(errcodes.UserNotFound, "user not found")
}

// FindReferrerOf сканирует реферальные списки всех пользователей.
func (r *UserRepository) FindReferrerOf(_ context.Context, userID int64) (*entity.User, error) {
	users, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].HasReferral(userID) {
			return &users[i], nil
		}
	}

	return nil, domain.NewError(errcodes.UserNotFound, "referrer not found")
}

// List возвращает всех пользователей.
func (r *UserRepository) List(_ context.Context) ([]entity.User, error) {
	return r.load()
}

// Save создаёт или обновляет пользователя.
func (r *UserRepository) Save(_ context.Context, user *entity.User) error {
	lock := r.store.Locker(CollectionUsers)
	lock.Lock()
	defer lock.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	for i := range users {
		if users[i].ID == user.ID {
			users[i] = *user
			return r.store.Save(CollectionUsers, users)
		}
	}

	users = append(users, *user)

	return r.store.Save(CollectionUsers, users)
}

// Delete удаляет пользователя. Каскад по сделкам и выводам — на сервисе.
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	lock := r.store.Locker(CollectionUsers)
	lock.Lock()
	defer lock.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	for i := range users {
		if users[i].ID == id {
			users = append(users[:i], users[i+1:]...)
			return r.store.Save(CollectionUsers, users)
		}
	}

	return domain.NewError(errcodes.UserNotFound, "user not found")
}
