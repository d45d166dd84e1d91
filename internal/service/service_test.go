package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/lock"
	"github.com/Freeeeeet/lesson_booking/internal/metrics"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// понедельник, 08:00 UTC
var testNow = time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	store        *memory.Store
	locker       *lock.KeyedLocker
	reservations *ReservationService
	matcher      *MatcherService
	guard        *GuardService
	slots        *SlotService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithTimeout(t, 10*time.Second)
}

func newTestEnvWithTimeout(t *testing.T, lockTimeout time.Duration) *testEnv {
	t.Helper()

	store := memory.NewStore()
	locker := lock.NewKeyedLocker()
	logger := zap.NewNop()
	recorder := metrics.Nop{}

	env := &testEnv{
		store:        store,
		locker:       locker,
		reservations: NewReservationService(store, locker, recorder, logger, lockTimeout),
		matcher:      NewMatcherService(store, recorder, logger, time.UTC, DefaultMatchHorizon),
		guard:        NewGuardService(store, locker, recorder, logger, lockTimeout),
		slots:        NewSlotService(store, locker, recorder, logger, lockTimeout),
	}
	env.setNow(testNow)
	return env
}

func (e *testEnv) setNow(now time.Time) {
	clock := func() time.Time { return now }
	e.reservations.now = clock
	e.matcher.now = clock
	e.guard.now = clock
	e.slots.now = clock
}

// createSlot слот владельца, начинающийся через offset от testNow
func (e *testEnv) createSlot(t *testing.T, ownerID int64, offset, length time.Duration) *model.ScheduleSlot {
	t.Helper()
	start := testNow.Add(offset)
	slot, err := e.slots.CreateSlot(context.Background(), ownerID, model.MustTimeInterval(start, start.Add(length)))
	require.NoError(t, err)
	return slot
}

func (e *testEnv) setAvailability(t *testing.T, ownerID int64, windows ...*model.RecurringAvailability) {
	t.Helper()
	_, err := e.guard.ReplaceAvailability(context.Background(), ownerID, windows)
	require.NoError(t, err)
}

func window(t *testing.T, day time.Weekday, from, to string) *model.RecurringAvailability {
	t.Helper()
	start, err := model.ParseWallClock(from)
	require.NoError(t, err)
	end, err := model.ParseWallClock(to)
	require.NoError(t, err)
	return &model.RecurringAvailability{Weekday: day, StartTime: start, EndTime: end}
}

func wallClock(t *testing.T, s string) model.WallClock {
	t.Helper()
	c, err := model.ParseWallClock(s)
	require.NoError(t, err)
	return c
}
