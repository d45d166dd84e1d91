package model

import "time"

type SlotStatus string

const (
	SlotStatusOpen      SlotStatus = "open"      // Свободен для записи
	SlotStatusReserved  SlotStatus = "reserved"  // Есть запись
	SlotStatusCompleted SlotStatus = "completed" // Занятие прошло
	SlotStatusCancelled SlotStatus = "cancelled" // Отменён
)

// DefaultSlotCapacity занятия один на один
const DefaultSlotCapacity = 1

// IsTerminal completed и cancelled не меняются
func (s SlotStatus) IsTerminal() bool {
	return s == SlotStatusCompleted || s == SlotStatusCancelled
}

// IsCommitted слот занят учеником (учитывается при проверке пересечений)
func (s SlotStatus) IsCommitted() bool {
	return s == SlotStatusReserved || s == SlotStatusCompleted
}

// IsValid проверяет что статус известен
func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotStatusOpen, SlotStatusReserved, SlotStatusCompleted, SlotStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo описывает жизненный цикл слота:
// open → reserved | cancelled, reserved → completed | cancelled | open.
// reserved → open допустим только без активных записей, это проверяет сервис.
func (s SlotStatus) CanTransitionTo(next SlotStatus) bool {
	switch s {
	case SlotStatusOpen:
		return next == SlotStatusReserved || next == SlotStatusCancelled
	case SlotStatusReserved:
		return next == SlotStatusCompleted || next == SlotStatusCancelled || next == SlotStatusOpen
	}
	return false
}

type ScheduleSlot struct {
	ID        int64        `json:"id"`
	OwnerID   int64        `json:"owner_id"`
	Interval  TimeInterval `json:"interval"`
	Status    SlotStatus   `json:"status"`
	Capacity  int          `json:"capacity"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsBookable слот ещё не начался и не в терминальном статусе.
// reserved тоже подходит: свободна ли ёмкость, решает подсчёт активных записей.
func (s *ScheduleSlot) IsBookable(now time.Time) bool {
	if s.Status != SlotStatusOpen && s.Status != SlotStatusReserved {
		return false
	}
	return now.Before(s.Interval.Start)
}

// EffectiveCapacity ёмкость с учётом значения по умолчанию
func (s *ScheduleSlot) EffectiveCapacity() int {
	if s.Capacity <= 0 {
		return DefaultSlotCapacity
	}
	return s.Capacity
}
