package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC) // понедельник

func newSlot(owner int64, start time.Time, d time.Duration) *model.ScheduleSlot {
	return &model.ScheduleSlot{
		OwnerID:  owner,
		Interval: model.MustTimeInterval(start, start.Add(d)),
		Status:   model.SlotStatusOpen,
	}
}

func TestStore_InTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	slot := newSlot(1, base, time.Hour)
	require.NoError(t, store.Repositories().Slots.Create(ctx, slot))

	boom := errors.New("boom")
	err := store.InTx(ctx, repository.SlotScope(slot.ID), func(ctx context.Context, repos repository.Repositories) error {
		require.NoError(t, repos.Reservations.Create(ctx, &model.Reservation{SlotID: slot.ID, HolderID: 10}))
		require.NoError(t, repos.Slots.UpdateStatus(ctx, slot.ID, model.SlotStatusReserved))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	repos := store.Repositories()
	count, err := repos.Reservations.CountActive(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	got, err := repos.Slots.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusOpen, got.Status)
}

func TestStore_InTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	slot := newSlot(1, base, time.Hour)
	require.NoError(t, store.Repositories().Slots.Create(ctx, slot))

	err := store.InTx(ctx, repository.SlotScope(slot.ID), func(ctx context.Context, repos repository.Repositories) error {
		return repos.Reservations.Create(ctx, &model.Reservation{SlotID: slot.ID, HolderID: 10})
	})
	require.NoError(t, err)

	count, err := store.Repositories().Reservations.CountActive(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_CanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.InTx(ctx, repository.OwnerScope(1), func(context.Context, repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestReservationRepository_OneActivePerHolder(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	slot := newSlot(1, base, time.Hour)
	require.NoError(t, repos.Slots.Create(ctx, slot))

	first := &model.Reservation{SlotID: slot.ID, HolderID: 10}
	require.NoError(t, repos.Reservations.Create(ctx, first))
	assert.Equal(t, model.ReservationStatusActive, first.Status)

	err := repos.Reservations.Create(ctx, &model.Reservation{SlotID: slot.ID, HolderID: 10})
	assert.ErrorIs(t, err, model.ErrAlreadyReserved)

	require.NoError(t, repos.Reservations.UpdateStatus(ctx, first.ID, model.ReservationStatusCanceled))
	require.NoError(t, repos.Reservations.Create(ctx, &model.Reservation{SlotID: slot.ID, HolderID: 10}))

	list, err := repos.Reservations.ListByHolder(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Slot)
	assert.Equal(t, slot.ID, list[0].Slot.ID)
}

func TestReservationRepository_CancelAllActive(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	slot := newSlot(1, base, time.Hour)
	slot.Capacity = 3
	require.NoError(t, repos.Slots.Create(ctx, slot))
	for _, holder := range []int64{10, 11, 12} {
		require.NoError(t, repos.Reservations.Create(ctx, &model.Reservation{SlotID: slot.ID, HolderID: holder}))
	}

	n, err := repos.Reservations.CancelAllActive(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := repos.Reservations.CountActive(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSlotRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	slot := newSlot(1, base, time.Hour)
	require.NoError(t, repos.Slots.Create(ctx, slot))

	got, err := repos.Slots.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	got.Status = model.SlotStatusCancelled

	again, err := repos.Slots.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusOpen, again.Status)

	missing, err := repos.Slots.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, repos.Slots.UpdateStatus(ctx, 999, model.SlotStatusOpen), model.ErrNotFound)
}

func TestSlotRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	a := newSlot(1, base, time.Hour)
	b := newSlot(1, base.Add(2*time.Hour), time.Hour)
	c := newSlot(2, base, time.Hour)
	for _, s := range []*model.ScheduleSlot{a, b, c} {
		require.NoError(t, repos.Slots.Create(ctx, s))
	}
	require.NoError(t, repos.Slots.UpdateStatus(ctx, b.ID, model.SlotStatusReserved))
	require.NoError(t, repos.Slots.UpdateStatus(ctx, c.ID, model.SlotStatusCompleted))

	// touching boundaries do not overlap
	list, err := repos.Slots.ListByOwner(ctx, 1, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repos.Slots.ListByOwner(ctx, 1, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)

	committed, err := repos.Slots.ListCommittedByOwners(ctx, []int64{1, 2}, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, committed, 2)

	has, err := repos.Slots.HasReservedStartingAfter(ctx, 1, base)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repos.Slots.HasReservedStartingAfter(ctx, 1, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, has)

	ended, err := repos.Slots.ListReservedEndedBy(ctx, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, b.ID, ended[0].ID)
}

func TestAvailabilityRepository_FindCoveringOwners(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	window := func(day time.Weekday, from, to string) *model.RecurringAvailability {
		start, err := model.ParseWallClock(from)
		require.NoError(t, err)
		end, err := model.ParseWallClock(to)
		require.NoError(t, err)
		return &model.RecurringAvailability{Weekday: day, StartTime: start, EndTime: end}
	}

	// владелец 1: пн и ср 09-12
	require.NoError(t, repos.Availability.ReplaceForOwner(ctx, 1, []*model.RecurringAvailability{
		window(time.Monday, "09:00", "12:00"),
		window(time.Wednesday, "09:00", "12:00"),
	}))
	// владелец 2: только пн
	require.NoError(t, repos.Availability.ReplaceForOwner(ctx, 2, []*model.RecurringAvailability{
		window(time.Monday, "08:00", "18:00"),
	}))
	// владелец 3: пн и ср, но в среду окно короче
	require.NoError(t, repos.Availability.ReplaceForOwner(ctx, 3, []*model.RecurringAvailability{
		window(time.Monday, "09:00", "12:00"),
		window(time.Wednesday, "09:00", "10:00"),
	}))

	ten, _ := model.ParseWallClock("10:00")
	eleven, _ := model.ParseWallClock("11:00")

	owners, err := repos.Availability.FindCoveringOwners(ctx, []time.Weekday{time.Monday, time.Wednesday}, ten, eleven)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, owners)

	owners, err = repos.Availability.FindCoveringOwners(ctx, []time.Weekday{time.Monday, time.Monday}, ten, eleven)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, owners)

	windows, err := repos.Availability.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, windows[0].GroupID, windows[1].GroupID)

	require.NoError(t, repos.Availability.ReplaceForOwner(ctx, 1, nil))
	windows, err = repos.Availability.ListByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestTimeOffRepository_RejectsOverlap(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	first := &model.TimeOff{OwnerID: 1, Interval: model.MustTimeInterval(base, base.Add(48*time.Hour))}
	require.NoError(t, repos.TimeOffs.Create(ctx, first))

	err := repos.TimeOffs.Create(ctx, &model.TimeOff{OwnerID: 1, Interval: model.MustTimeInterval(base.Add(time.Hour), base.Add(2*time.Hour))})
	assert.ErrorIs(t, err, model.ErrTimeOffConflict)

	// соседний период и другой владелец допустимы
	require.NoError(t, repos.TimeOffs.Create(ctx, &model.TimeOff{OwnerID: 1, Interval: model.MustTimeInterval(base.Add(48*time.Hour), base.Add(72*time.Hour))}))
	require.NoError(t, repos.TimeOffs.Create(ctx, &model.TimeOff{OwnerID: 2, Interval: model.MustTimeInterval(base, base.Add(time.Hour))}))

	list, err := repos.TimeOffs.ListByOwners(ctx, []int64{1}, base, base.Add(100*time.Hour))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repos.TimeOffs.Delete(ctx, first.ID))
	assert.ErrorIs(t, repos.TimeOffs.Delete(ctx, first.ID), model.ErrNotFound)
}
