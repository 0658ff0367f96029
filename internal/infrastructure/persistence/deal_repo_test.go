package persistence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/infrastructure/persistence"
)

func TestDealRepositoryAggregates(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := persistence.NewStore(t.TempDir(), time.Millisecond)
	repo := persistence.NewDealRepository(store)

	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	lastMonth := now.AddDate(0, -1, 0)

	deals := []entity.Deal{
		{ID: "d1", UserID: 7, Status: entity.DealStatusCompleted, RubAmount: 5000, Timestamp: now, SelectedPaymentDetailsID: lo.ToPtr("card-1")},
		{ID: "d2", UserID: 7, Status: entity.DealStatusCompleted, RubAmount: 3000, Timestamp: lastMonth},
		{ID: "d3", UserID: 7, Status: entity.DealStatusPending, RubAmount: 2000, Timestamp: now, SelectedPaymentDetailsID: lo.ToPtr("card-1")},
		{ID: "d4", UserID: 7, Status: entity.DealStatusExpired, RubAmount: 9000, Timestamp: now, SelectedPaymentDetailsID: lo.ToPtr("card-1")},
		{ID: "d5", UserID: 8, Status: entity.DealStatusCompleted, RubAmount: 1000, Timestamp: now, SelectedPaymentDetailsID: lo.ToPtr("card-2")},
	}

	for i := range deals {
		rq.NoError(repo.Save(ctx, &deals[i]))
	}

	t.Run("turnover counts only completed", func(t *testing.T) {
		turnover, err := repo.CompletedTurnover(ctx, 7)
		rq.NoError(err)
		rq.InDelta(8000, turnover, 1e-9)
	})

	t.Run("completed in month respects calendar bounds", func(t *testing.T) {
		count, err := repo.CompletedInMonth(ctx, 7, now)
		rq.NoError(err)
		rq.Equal(1, count)
	})

	t.Run("card volume excludes expired and foreign cards", func(t *testing.T) {
		volume, err := repo.VolumeForPaymentDetail(ctx, "card-1", now.Add(-time.Hour))
		rq.NoError(err)
		rq.InDelta(7000, volume, 1e-9) // d1 + d3, без expired d4
	})

	t.Run("card volume respects reset moment", func(t *testing.T) {
		volume, err := repo.VolumeForPaymentDetail(ctx, "card-1", now.Add(time.Hour))
		rq.NoError(err)
		rq.Zero(volume)
	})

	t.Run("list by user", func(t *testing.T) {
		mine, err := repo.ListByUser(ctx, 8)
		rq.NoError(err)
		rq.Len(mine, 1)
		rq.Equal("d5", mine[0].ID)
	})

	t.Run("delete is a tombstone", func(t *testing.T) {
		rq.NoError(repo.Delete(ctx, "d5"))

		_, err := repo.GetByID(ctx, "d5")
		rq.Error(err)
	})
}

// Репозиторий дёргают конкурентно хендлеры бота, свипер и опрос счетов —
// чтения с вторичным индексом не должны делить состояние (ловится -race).
func TestDealRepositoryConcurrentReads(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := persistence.NewStore(t.TempDir(), time.Millisecond)
	repo := persistence.NewDealRepository(store)

	now := time.Now()
	for _, d := range []entity.Deal{
		{ID: "c1", UserID: 1, Status: entity.DealStatusCompleted, RubAmount: 1000, Timestamp: now},
		{ID: "c2", UserID: 2, Status: entity.DealStatusPending, RubAmount: 2000, Timestamp: now},
	} {
		rq.NoError(repo.Save(ctx, &d))
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, err := repo.ListByUser(ctx, userID)
				assert.NoError(t, err)

				_, err = repo.CompletedTurnover(ctx, userID)
				assert.NoError(t, err)

				_, err = repo.CompletedInMonth(ctx, userID, now)
				assert.NoError(t, err)
			}
		}(int64(g%2 + 1))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, repo.Save(ctx, &entity.Deal{
				ID: "c3", UserID: 1, Status: entity.DealStatusUnpaid, RubAmount: 500, Timestamp: now,
			}))
		}
	}()

	wg.Wait()
}
