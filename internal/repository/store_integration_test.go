package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/lock"
	"github.com/Freeeeeet/lesson_booking/internal/metrics"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Тесты против настоящего Postgres. Запуск: TEST_DB_DSN=postgres://... go test ./internal/repository/
func newPgStore(t *testing.T) *repository.PgStore {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	logger := zap.NewNop()

	pool, err := app.NewPool(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, "", logger)
	require.NoError(t, err)
	defer migrator.Close()
	require.NoError(t, migrator.Run(ctx))

	return repository.NewPgStore(pool, 3*time.Second)
}

// uniqueOwner владелец, которого нет в данных прошлых запусков
func uniqueOwner() int64 {
	return time.Now().UnixNano() / 1000
}

func TestPgStore_ConcurrentBookingOneWinner(t *testing.T) {
	store := newPgStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	slots := service.NewSlotService(store, lock.NewKeyedLocker(), metrics.Nop{}, logger, 3*time.Second)
	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	slot, err := slots.CreateSlot(ctx, uniqueOwner(), model.MustTimeInterval(start, start.Add(time.Hour)))
	require.NoError(t, err)

	// два "инстанса" с разными in-process локерами: сериализует только Postgres
	instances := []*service.ReservationService{
		service.NewReservationService(store, lock.NewKeyedLocker(), metrics.Nop{}, logger, 3*time.Second),
		service.NewReservationService(store, lock.NewKeyedLocker(), metrics.Nop{}, logger, 3*time.Second),
	}

	const k = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := instances[i%2].Book(ctx, slot.ID, int64(1000+i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, model.ErrSlotFull), errors.Is(err, model.ErrBusy):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)

	active, err := instances[0].CountActive(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestPgStore_TimeOffOverlapRejected(t *testing.T) {
	store := newPgStore(t)
	ctx := context.Background()
	owner := uniqueOwner()

	guard := service.NewGuardService(store, lock.NewKeyedLocker(), metrics.Nop{}, zap.NewNop(), 3*time.Second)
	start := time.Now().Add(72 * time.Hour).Truncate(time.Minute)

	_, err := guard.AddTimeOff(ctx, owner, model.MustTimeInterval(start, start.Add(24*time.Hour)), "отпуск")
	require.NoError(t, err)

	_, err = guard.AddTimeOff(ctx, owner, model.MustTimeInterval(start.Add(12*time.Hour), start.Add(36*time.Hour)), "")
	assert.ErrorIs(t, err, model.ErrTimeOffConflict)

	// касание границ допустимо
	_, err = guard.AddTimeOff(ctx, owner, model.MustTimeInterval(start.Add(24*time.Hour), start.Add(48*time.Hour)), "")
	assert.NoError(t, err)
}

func TestPgStore_AvailabilityRoundTrip(t *testing.T) {
	store := newPgStore(t)
	ctx := context.Background()
	owner := uniqueOwner()

	guard := service.NewGuardService(store, lock.NewKeyedLocker(), metrics.Nop{}, zap.NewNop(), 3*time.Second)
	windows := []*model.RecurringAvailability{
		{OwnerID: owner, Weekday: time.Monday, StartTime: 9 * 60, EndTime: 12 * 60},
		{OwnerID: owner, Weekday: time.Wednesday, StartTime: 9 * 60, EndTime: 12 * 60},
	}
	saved, err := guard.ReplaceAvailability(ctx, owner, windows)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, saved[0].GroupID, saved[1].GroupID)

	got, err := guard.GetAvailability(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	owners, err := store.Repositories().Availability.FindCoveringOwners(ctx,
		[]time.Weekday{time.Monday, time.Wednesday}, 10*60, 11*60)
	require.NoError(t, err)
	assert.Contains(t, owners, owner)

	owners, err = store.Repositories().Availability.FindCoveringOwners(ctx,
		[]time.Weekday{time.Monday, time.Friday}, 10*60, 11*60)
	require.NoError(t, err)
	assert.NotContains(t, owners, owner)
}
