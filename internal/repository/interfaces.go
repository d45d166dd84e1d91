package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// Все методы Get* возвращают nil, nil если строка не найдена.

// SlotRepository слоты расписания
type SlotRepository interface {
	Create(ctx context.Context, slot *model.ScheduleSlot) error
	GetByID(ctx context.Context, id int64) (*model.ScheduleSlot, error)
	UpdateStatus(ctx context.Context, id int64, status model.SlotStatus) error

	// ListByOwner слоты владельца, пересекающие [from, to), в любом статусе
	ListByOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]*model.ScheduleSlot, error)

	// LockByOwner как ListByOwner, но в транзакции Postgres блокирует найденные строки
	// (FOR UPDATE), чтобы параллельное бронирование этих слотов дождалось коммита.
	LockByOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]*model.ScheduleSlot, error)

	// ListCommittedByOwners слоты в статусах reserved/completed, пересекающие [from, to)
	ListCommittedByOwners(ctx context.Context, ownerIDs []int64, from, to time.Time) ([]*model.ScheduleSlot, error)

	// HasReservedStartingAfter есть ли у владельца reserved слот с началом после after
	HasReservedStartingAfter(ctx context.Context, ownerID int64, after time.Time) (bool, error)

	// ListReservedEndedBy reserved слоты, закончившиеся не позже before
	ListReservedEndedBy(ctx context.Context, before time.Time) ([]*model.ScheduleSlot, error)
}

// ReservationRepository записи на слоты
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	FindActive(ctx context.Context, slotID, holderID int64) (*model.Reservation, error)
	CountActive(ctx context.Context, slotID int64) (int, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error

	// CancelAllActive отменяет все активные записи слота, возвращает их количество
	CancelAllActive(ctx context.Context, slotID int64) (int, error)

	// ListByHolder записи ученика, новые первыми
	ListByHolder(ctx context.Context, holderID int64) ([]*model.Reservation, error)
}

// AvailabilityRepository еженедельная доступность владельцев
type AvailabilityRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.RecurringAvailability, error)

	// ReplaceForOwner удаляет все окна владельца и вставляет rows.
	// Атомарность обеспечивает транзакция Store.InTx.
	ReplaceForOwner(ctx context.Context, ownerID int64, rows []*model.RecurringAvailability) error

	// FindCoveringOwners владельцы, у которых каждый день из days покрыт окном,
	// содержащим [start, end). Частичное покрытие не подходит.
	FindCoveringOwners(ctx context.Context, days []time.Weekday, start, end model.WallClock) ([]int64, error)
}

// TimeOffRepository периоды недоступности
type TimeOffRepository interface {
	Create(ctx context.Context, timeOff *model.TimeOff) error
	GetByID(ctx context.Context, id int64) (*model.TimeOff, error)
	Delete(ctx context.Context, id int64) error

	// ListByOwners периоды владельцев, пересекающие [from, to)
	ListByOwners(ctx context.Context, ownerIDs []int64, from, to time.Time) ([]*model.TimeOff, error)
}

// Repositories набор репозиториев, привязанных к пулу или к транзакции
type Repositories struct {
	Slots        SlotRepository
	Reservations ReservationRepository
	Availability AvailabilityRepository
	TimeOffs     TimeOffRepository
}

// LockKind пространство ключей блокировки
type LockKind string

const (
	LockSlot  LockKind = "slot"
	LockOwner LockKind = "owner"
)

// LockScope что именно блокирует транзакция
type LockScope struct {
	Kind LockKind
	ID   int64
}

func SlotScope(slotID int64) LockScope   { return LockScope{Kind: LockSlot, ID: slotID} }
func OwnerScope(ownerID int64) LockScope { return LockScope{Kind: LockOwner, ID: ownerID} }

// Key ключ для lock.KeyedLocker и advisory lock
func (s LockScope) Key() string {
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// TxFunc тело транзакции
type TxFunc func(ctx context.Context, repos Repositories) error

// Store точка входа в хранилище
type Store interface {
	// Repositories репозитории вне транзакции (чтение)
	Repositories() Repositories

	// InTx выполняет fn в одной транзакции, удерживая блокировку scope до коммита.
	// Ошибка fn откатывает все изменения. Не дождались блокировки - model.ErrBusy.
	InTx(ctx context.Context, scope LockScope, fn TxFunc) error

	Ping(ctx context.Context) error
}
