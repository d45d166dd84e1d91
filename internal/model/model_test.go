package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWallClock(t *testing.T) {
	valid := map[string]WallClock{
		"00:00": 0,
		"9:30":  9*60 + 30,
		"09:30": 9*60 + 30,
		"23:59": 23*60 + 59,
		"24:00": EndOfDay,
	}
	for in, want := range valid {
		got, err := ParseWallClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "9", "24:01", "25:00", "10:60", "aa:bb", "10:5", "123:00"} {
		_, err := ParseWallClock(in)
		assert.ErrorIs(t, err, ErrInvalidInterval, in)
	}
}

func TestWallClock_OnAndAdd(t *testing.T) {
	clock, err := NewWallClock(10, 15)
	require.NoError(t, err)

	assert.Equal(t, "10:15", clock.String())
	assert.Equal(t, "11:45", clock.Add(90*time.Minute).String())

	date := time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 15, 0, 0, time.UTC), clock.On(date, time.UTC))
}

func TestRecurringAvailability_Validate(t *testing.T) {
	ok := &RecurringAvailability{Weekday: time.Monday, StartTime: 9 * 60, EndTime: 12 * 60}
	assert.NoError(t, ok.Validate())

	bad := []*RecurringAvailability{
		{Weekday: time.Monday, StartTime: 12 * 60, EndTime: 12 * 60},
		{Weekday: time.Monday, StartTime: 13 * 60, EndTime: 12 * 60},
		{Weekday: time.Weekday(7), StartTime: 9 * 60, EndTime: 12 * 60},
		{Weekday: time.Monday, StartTime: 9 * 60, EndTime: EndOfDay + 1},
	}
	for _, a := range bad {
		assert.ErrorIs(t, a.Validate(), ErrInvalidInterval)
	}
}

func TestRecurringAvailability_Covers(t *testing.T) {
	a := &RecurringAvailability{Weekday: time.Monday, StartTime: 9 * 60, EndTime: 12 * 60}

	assert.True(t, a.Covers(9*60, 12*60))
	assert.True(t, a.Covers(10*60, 11*60))
	assert.False(t, a.Covers(8*60+59, 10*60))
	assert.False(t, a.Covers(11*60, 12*60+1))
}

func TestSlotStatus_Transitions(t *testing.T) {
	assert.True(t, SlotStatusOpen.CanTransitionTo(SlotStatusReserved))
	assert.True(t, SlotStatusOpen.CanTransitionTo(SlotStatusCancelled))
	assert.False(t, SlotStatusOpen.CanTransitionTo(SlotStatusCompleted))

	assert.True(t, SlotStatusReserved.CanTransitionTo(SlotStatusCompleted))
	assert.True(t, SlotStatusReserved.CanTransitionTo(SlotStatusCancelled))
	assert.True(t, SlotStatusReserved.CanTransitionTo(SlotStatusOpen))

	for _, terminal := range []SlotStatus{SlotStatusCompleted, SlotStatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		for _, next := range []SlotStatus{SlotStatusOpen, SlotStatusReserved, SlotStatusCompleted, SlotStatusCancelled} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestScheduleSlot_IsBookable(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	slot := &ScheduleSlot{
		Interval: MustTimeInterval(start, start.Add(2*time.Hour)),
		Status:   SlotStatusOpen,
	}

	assert.True(t, slot.IsBookable(start.Add(-time.Hour)))
	assert.False(t, slot.IsBookable(start), "started slot is not bookable")

	slot.Status = SlotStatusReserved
	assert.True(t, slot.IsBookable(start.Add(-time.Hour)))

	slot.Status = SlotStatusCompleted
	assert.False(t, slot.IsBookable(start.Add(-time.Hour)))

	assert.Equal(t, DefaultSlotCapacity, slot.EffectiveCapacity())
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
		code string
	}{
		{ErrInvalidInterval, KindValidation, "invalid_interval"},
		{ErrSlotFull, KindConflict, "slot_full"},
		{ErrAlreadyReserved, KindConflict, "already_reserved"},
		{ErrSlotUnavailable, KindConflict, "slot_unavailable"},
		{ErrTimeOffConflict, KindConflict, "time_off_conflict"},
		{ErrScheduleConflict, KindConflict, "schedule_conflict"},
		{ErrHasFutureBookings, KindConflict, "has_future_bookings"},
		{ErrBusy, KindContention, "busy"},
		{ErrNotFound, KindNotFound, "not_found"},
		{ErrForbidden, KindForbidden, "forbidden"},
		{fmt.Errorf("boom"), KindInternal, "internal"},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("book slot 1: %w", tc.err)
		assert.Equal(t, tc.kind, KindOf(wrapped), tc.err.Error())
		assert.Equal(t, tc.code, Code(wrapped), tc.err.Error())
	}

	assert.True(t, IsRetryable(fmt.Errorf("x: %w", ErrBusy)))
	assert.False(t, IsRetryable(ErrSlotFull))
	assert.False(t, IsRetryable(nil))
	assert.Equal(t, "ok", Code(nil))
}
