package persistence

import (
	"context"

	"tg_exchange/internal/domain/entity"
)

// SettingsRepository — доступ к бизнес-конфигурации. Конфиг правится из
// админки на живом процессе, поэтому Get зовётся на каждый расчёт: свежесть
// обеспечивает короткий кэш Store, а не память процесса.
type SettingsRepository struct {
	store *Store
}

func NewSettingsRepository(store *Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// Get возвращает текущие настройки (нулевые значения до первой записи).
func (r *SettingsRepository) Get(_ context.Context) (*entity.Settings, error) {
	var settings entity.Settings
	if err := r.store.Load(CollectionConfig, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save перезаписывает настройки целиком.
func (r *SettingsRepository) Save(_ context.Context, settings *entity.Settings) error {
	lock := r.store.Locker(CollectionConfig)
	lock.Lock()
	defer lock.Unlock()

	return r.store.Save(CollectionConfig, settings)
}

// UpdatePaymentDetail — точечное обновление одной карты (метка выдачи,
// счётчик подтверждений).
func (r *SettingsRepository) UpdatePaymentDetail(ctx context.Context, detail entity.PaymentDetail) error {
	lock := r.store.Locker(CollectionConfig)
	lock.Lock()
	defer lock.Unlock()

	var settings entity.Settings
	if err := r.store.Load(CollectionConfig, &settings); err != nil {
		return err
	}

	for i := range settings.PaymentDetails {
		if settings.PaymentDetails[i].ID == detail.ID {
			settings.PaymentDetails[i] = detail
			break
		}
	}

	return r.store.Save(CollectionConfig, &settings)
}
