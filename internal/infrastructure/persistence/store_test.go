package persistence_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/infrastructure/persistence"
	"tg_exchange/pkg/errcodes"
)

func TestStoreRoundTrip(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := persistence.NewStore(t.TempDir(), 50*time.Millisecond)
	repo := persistence.NewUserRepository(store)

	user := &entity.User{
		ID:               1217838677,
		Username:         "satoshi",
		Balance:          0.00012345,
		ReferralID:       "ref-abc",
		RegistrationDate: time.Now().Truncate(time.Second),
	}

	rq.NoError(repo.Save(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	rq.NoError(err)
	rq.Equal(user.Username, got.Username)
	rq.InDelta(user.Balance, got.Balance, 1e-9)

	_, err = repo.GetByID(ctx, 404)
	rq.True(domain.IsCode(err, errcodes.UserNotFound))
}

func TestStoreMissingFileIsEmptyCollection(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := persistence.NewStore(t.TempDir(), time.Second)

	users, err := persistence.NewUserRepository(store).List(ctx)
	rq.NoError(err)
	rq.Empty(users)
}

func TestStoreReadCache(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	dir := t.TempDir()
	store := persistence.NewStore(dir, time.Hour)
	repo := persistence.NewUserRepository(store)

	rq.NoError(repo.Save(ctx, &entity.User{ID: 1}))

	// Портим файл за спиной кэша: пока TTL не истёк, чтение идёт из кэша.
	rq.NoError(os.WriteFile(filepath.Join(dir, "users.json"), []byte("{broken"), 0o644))

	got, err := repo.GetByID(ctx, 1)
	rq.NoError(err)
	rq.Equal(int64(1), got.ID)
}

func TestStoreNoTornWrites(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	dir := t.TempDir()
	store := persistence.NewStore(dir, time.Millisecond)
	repo := persistence.NewDealRepository(store)

	for i := 0; i < 20; i++ {
		rq.NoError(repo.Save(ctx, &entity.Deal{
			ID:     string(rune('a' + i)),
			Status: entity.DealStatusPending,
		}))
	}

	entries, err := os.ReadDir(dir)
	rq.NoError(err)
	for _, e := range entries {
		rq.NotContains(e.Name(), ".tmp")
	}
}
