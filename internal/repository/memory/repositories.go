package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/google/uuid"
)

type slotRepository struct{ *access }

func (r *slotRepository) Create(_ context.Context, slot *model.ScheduleSlot) error {
	return r.with(func(st *state) error {
		if slot.Capacity <= 0 {
			slot.Capacity = model.DefaultSlotCapacity
		}
		st.lastSlotID++
		slot.ID = st.lastSlotID
		slot.CreatedAt = r.store.now().UTC()
		st.slots[slot.ID] = copySlot(slot)
		return nil
	})
}

func (r *slotRepository) GetByID(_ context.Context, id int64) (*model.ScheduleSlot, error) {
	var out *model.ScheduleSlot
	err := r.with(func(st *state) error {
		if slot, ok := st.slots[id]; ok {
			out = copySlot(slot)
		}
		return nil
	})
	return out, err
}

func (r *slotRepository) UpdateStatus(_ context.Context, id int64, status model.SlotStatus) error {
	return r.with(func(st *state) error {
		slot, ok := st.slots[id]
		if !ok {
			return fmt.Errorf("update slot status: %w", model.ErrNotFound)
		}
		slot.Status = status
		return nil
	})
}

func (r *slotRepository) ListByOwner(_ context.Context, ownerID int64, from, to time.Time) ([]*model.ScheduleSlot, error) {
	return r.filter(func(s *model.ScheduleSlot) bool {
		return s.OwnerID == ownerID && overlapsRange(s.Interval, from, to)
	}, byStart)
}

// LockByOwner в памяти блокировать нечего: транзакция и так единственная
func (r *slotRepository) LockByOwner(_ context.Context, ownerID int64, from, to time.Time) ([]*model.ScheduleSlot, error) {
	return r.filter(func(s *model.ScheduleSlot) bool {
		return s.OwnerID == ownerID && overlapsRange(s.Interval, from, to)
	}, byID)
}

func (r *slotRepository) ListCommittedByOwners(_ context.Context, ownerIDs []int64, from, to time.Time) ([]*model.ScheduleSlot, error) {
	owners := make(map[int64]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	return r.filter(func(s *model.ScheduleSlot) bool {
		return owners[s.OwnerID] && s.Status.IsCommitted() && overlapsRange(s.Interval, from, to)
	}, byStart)
}

func (r *slotRepository) HasReservedStartingAfter(_ context.Context, ownerID int64, after time.Time) (bool, error) {
	var found bool
	err := r.with(func(st *state) error {
		for _, s := range st.slots {
			if s.OwnerID == ownerID && s.Status == model.SlotStatusReserved && s.Interval.Start.After(after) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *slotRepository) ListReservedEndedBy(_ context.Context, before time.Time) ([]*model.ScheduleSlot, error) {
	return r.filter(func(s *model.ScheduleSlot) bool {
		return s.Status == model.SlotStatusReserved && !s.Interval.End.After(before)
	}, byStart)
}

func (r *slotRepository) filter(keep func(*model.ScheduleSlot) bool, less func(a, b *model.ScheduleSlot) bool) ([]*model.ScheduleSlot, error) {
	var out []*model.ScheduleSlot
	err := r.with(func(st *state) error {
		for _, s := range st.slots {
			if keep(s) {
				out = append(out, copySlot(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, err
}

func byID(a, b *model.ScheduleSlot) bool { return a.ID < b.ID }

func byStart(a, b *model.ScheduleSlot) bool {
	if a.Interval.Start.Equal(b.Interval.Start) {
		return a.ID < b.ID
	}
	return a.Interval.Start.Before(b.Interval.Start)
}

func overlapsRange(i model.TimeInterval, from, to time.Time) bool {
	return i.Start.Before(to) && i.End.After(from)
}

type reservationRepository struct{ *access }

func (r *reservationRepository) Create(_ context.Context, reservation *model.Reservation) error {
	return r.with(func(st *state) error {
		if reservation.Status == "" {
			reservation.Status = model.ReservationStatusActive
		}
		if reservation.IsActive() {
			for _, existing := range st.reservations {
				if existing.SlotID == reservation.SlotID && existing.HolderID == reservation.HolderID && existing.IsActive() {
					return fmt.Errorf("create reservation: %w", model.ErrAlreadyReserved)
				}
			}
		}

		now := r.store.now().UTC()
		st.lastReservationID++
		reservation.ID = st.lastReservationID
		reservation.CreatedAt = now
		reservation.UpdatedAt = now

		stored := copyReservation(reservation)
		stored.Slot = nil
		st.reservations[stored.ID] = stored
		return nil
	})
}

func (r *reservationRepository) GetByID(_ context.Context, id int64) (*model.Reservation, error) {
	var out *model.Reservation
	err := r.with(func(st *state) error {
		if res, ok := st.reservations[id]; ok {
			out = copyReservation(res)
		}
		return nil
	})
	return out, err
}

func (r *reservationRepository) FindActive(_ context.Context, slotID, holderID int64) (*model.Reservation, error) {
	var out *model.Reservation
	err := r.with(func(st *state) error {
		for _, res := range st.reservations {
			if res.SlotID == slotID && res.HolderID == holderID && res.IsActive() {
				out = copyReservation(res)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *reservationRepository) CountActive(_ context.Context, slotID int64) (int, error) {
	var n int
	err := r.with(func(st *state) error {
		for _, res := range st.reservations {
			if res.SlotID == slotID && res.IsActive() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *reservationRepository) UpdateStatus(_ context.Context, id int64, status model.ReservationStatus) error {
	return r.with(func(st *state) error {
		res, ok := st.reservations[id]
		if !ok {
			return fmt.Errorf("update reservation status: %w", model.ErrNotFound)
		}
		res.Status = status
		res.UpdatedAt = r.store.now().UTC()
		return nil
	})
}

func (r *reservationRepository) CancelAllActive(_ context.Context, slotID int64) (int, error) {
	var n int
	err := r.with(func(st *state) error {
		now := r.store.now().UTC()
		for _, res := range st.reservations {
			if res.SlotID == slotID && res.IsActive() {
				res.Status = model.ReservationStatusCanceled
				res.UpdatedAt = now
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *reservationRepository) ListByHolder(_ context.Context, holderID int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	err := r.with(func(st *state) error {
		for _, res := range st.reservations {
			if res.HolderID != holderID {
				continue
			}
			c := copyReservation(res)
			if slot, ok := st.slots[res.SlotID]; ok {
				c.Slot = copySlot(slot)
			}
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

type availabilityRepository struct{ *access }

func (r *availabilityRepository) ListByOwner(_ context.Context, ownerID int64) ([]*model.RecurringAvailability, error) {
	var out []*model.RecurringAvailability
	err := r.with(func(st *state) error {
		for _, w := range st.availability[ownerID] {
			out = append(out, copyWindow(w))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday == out[j].Weekday {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Weekday < out[j].Weekday
	})
	return out, err
}

func (r *availabilityRepository) ReplaceForOwner(_ context.Context, ownerID int64, windows []*model.RecurringAvailability) error {
	return r.with(func(st *state) error {
		delete(st.availability, ownerID)
		if len(windows) == 0 {
			return nil
		}

		groupID := uuid.New()
		now := r.store.now().UTC()
		stored := make([]*model.RecurringAvailability, 0, len(windows))
		for _, w := range windows {
			st.lastAvailabilityID++
			w.ID = st.lastAvailabilityID
			w.GroupID = groupID
			w.OwnerID = ownerID
			w.CreatedAt = now
			stored = append(stored, copyWindow(w))
		}
		st.availability[ownerID] = stored
		return nil
	})
}

func (r *availabilityRepository) FindCoveringOwners(_ context.Context, days []time.Weekday, start, end model.WallClock) ([]int64, error) {
	wanted := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	var owners []int64
	err := r.with(func(st *state) error {
		for ownerID, windows := range st.availability {
			covered := make(map[time.Weekday]bool, len(wanted))
			for _, w := range windows {
				if wanted[w.Weekday] && w.Covers(start, end) {
					covered[w.Weekday] = true
				}
			}
			if len(covered) == len(wanted) {
				owners = append(owners, ownerID)
			}
		}
		return nil
	})
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners, err
}

type timeOffRepository struct{ *access }

func (r *timeOffRepository) Create(_ context.Context, timeOff *model.TimeOff) error {
	return r.with(func(st *state) error {
		for _, existing := range st.timeOffs {
			if existing.OwnerID == timeOff.OwnerID && existing.Interval.Overlaps(timeOff.Interval) {
				return fmt.Errorf("create time off: %w", model.ErrTimeOffConflict)
			}
		}

		st.lastTimeOffID++
		timeOff.ID = st.lastTimeOffID
		timeOff.CreatedAt = r.store.now().UTC()
		st.timeOffs[timeOff.ID] = copyTimeOff(timeOff)
		return nil
	})
}

func (r *timeOffRepository) GetByID(_ context.Context, id int64) (*model.TimeOff, error) {
	var out *model.TimeOff
	err := r.with(func(st *state) error {
		if t, ok := st.timeOffs[id]; ok {
			out = copyTimeOff(t)
		}
		return nil
	})
	return out, err
}

func (r *timeOffRepository) Delete(_ context.Context, id int64) error {
	return r.with(func(st *state) error {
		if _, ok := st.timeOffs[id]; !ok {
			return fmt.Errorf("delete time off: %w", model.ErrNotFound)
		}
		delete(st.timeOffs, id)
		return nil
	})
}

func (r *timeOffRepository) ListByOwners(_ context.Context, ownerIDs []int64, from, to time.Time) ([]*model.TimeOff, error) {
	owners := make(map[int64]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}

	var out []*model.TimeOff
	err := r.with(func(st *state) error {
		for _, t := range st.timeOffs {
			if owners[t.OwnerID] && overlapsRange(t.Interval, from, to) {
				out = append(out, copyTimeOff(t))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID == out[j].OwnerID {
			return out[i].Interval.Start.Before(out[j].Interval.Start)
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out, err
}
