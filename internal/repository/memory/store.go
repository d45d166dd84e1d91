// Package memory реализует repository.Store в памяти процесса.
// Используется в тестах и при STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
)

type state struct {
	slots        map[int64]*model.ScheduleSlot
	reservations map[int64]*model.Reservation
	availability map[int64][]*model.RecurringAvailability // по owner_id
	timeOffs     map[int64]*model.TimeOff

	lastSlotID         int64
	lastReservationID  int64
	lastAvailabilityID int64
	lastTimeOffID      int64
}

func newState() *state {
	return &state{
		slots:        make(map[int64]*model.ScheduleSlot),
		reservations: make(map[int64]*model.Reservation),
		availability: make(map[int64][]*model.RecurringAvailability),
		timeOffs:     make(map[int64]*model.TimeOff),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, slot := range s.slots {
		c.slots[id] = copySlot(slot)
	}
	for id, res := range s.reservations {
		c.reservations[id] = copyReservation(res)
	}
	for owner, windows := range s.availability {
		cw := make([]*model.RecurringAvailability, len(windows))
		for i, w := range windows {
			cw[i] = copyWindow(w)
		}
		c.availability[owner] = cw
	}
	for id, t := range s.timeOffs {
		c.timeOffs[id] = copyTimeOff(t)
	}
	c.lastSlotID = s.lastSlotID
	c.lastReservationID = s.lastReservationID
	c.lastAvailabilityID = s.lastAvailabilityID
	c.lastTimeOffID = s.lastTimeOffID
	return c
}

// Store хранилище в памяти. Транзакции выполняются строго по одной:
// мьютекс удерживается на всё время InTx, при ошибке состояние откатывается.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// Repositories репозитории вне транзакции, каждый вызов берёт мьютекс сам
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(true)
}

// InTx выполняет fn под мьютексом хранилища.
// scope не нужен: все транзакции и так сериализованы.
func (s *Store) InTx(ctx context.Context, _ repository.LockScope, fn repository.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	if err := fn(ctx, s.repositories(false)); err != nil {
		s.st = snapshot
		return err
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) repositories(locking bool) repository.Repositories {
	a := &access{store: s, locking: locking}
	return repository.Repositories{
		Slots:        &slotRepository{a},
		Reservations: &reservationRepository{a},
		Availability: &availabilityRepository{a},
		TimeOffs:     &timeOffRepository{a},
	}
}

// access даёт репозиториям состояние: вне транзакции под мьютексом,
// внутри транзакции мьютекс уже удерживает InTx.
type access struct {
	store   *Store
	locking bool
}

func (a *access) with(fn func(st *state) error) error {
	if a.locking {
		a.store.mu.Lock()
		defer a.store.mu.Unlock()
	}
	return fn(a.store.st)
}

func copySlot(s *model.ScheduleSlot) *model.ScheduleSlot {
	c := *s
	return &c
}

func copyReservation(r *model.Reservation) *model.Reservation {
	c := *r
	if r.Slot != nil {
		c.Slot = copySlot(r.Slot)
	}
	return &c
}

func copyWindow(w *model.RecurringAvailability) *model.RecurringAvailability {
	c := *w
	return &c
}

func copyTimeOff(t *model.TimeOff) *model.TimeOff {
	c := *t
	return &c
}

var _ repository.Store = (*Store)(nil)
