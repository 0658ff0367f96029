package persistence

import (
	"context"
	"strconv"

	"tg_exchange/internal/domain/entity"
)

// StateRepository — эфемерные состояния диалогов, коллекция states:
// одиночный объект, ключ — userId строкой.
type StateRepository struct {
	store *Store
}

func NewStateRepository(store *Store) *StateRepository {
	return &StateRepository{store: store}
}

func (r *StateRepository) load() (map[string]entity.PendingState, error) {
	states := make(map[string]entity.PendingState)
	if err := r.store.Load(CollectionStates, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// Get возвращает состояние пользователя (nil, если маркера нет).
func (r *StateRepository) Get(_ context.Context, userID int64) (*entity.PendingState, error) {
	states, err := r.load()
	if err != nil {
		return nil, err
	}

	if state, ok := states[key(userID)]; ok {
		return &state, nil
	}

	return nil, nil //nolint:nilnil // отсутствие состояния — не ошибка
}

// Save перезаписывает состояние пользователя.
func (r *StateRepository) Save(_ context.Context, state *entity.PendingState) error {
	lock := r.store.Locker(CollectionStates)
	lock.Lock()
	defer lock.Unlock()

	states, err := r.load()
	if err != nil {
		return err
	}

	states[key(state.UserID)] = *state

	return r.store.Save(CollectionStates, states)
}

// Clear удаляет запись состояния целиком (не обнуляет поля).
func (r *StateRepository) Clear(_ context.Context, userID int64) error {
	lock := r.store.Locker(CollectionStates)
	lock.Lock()
	defer lock.Unlock()

	states, err := r.load()
	if err != nil {
		return err
	}

	if _, ok := states[key(userID)]; !ok {
		return nil
	}

	delete(states, key(userID))

	return r.store.Save(CollectionStates, states)
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
