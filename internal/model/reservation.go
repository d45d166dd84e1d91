package model

import "time"

type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"   // Действующая запись
	ReservationStatusCanceled ReservationStatus = "canceled" // Отменена, хранится для истории
)

// Reservation запись ученика (holder) на слот. Не удаляется физически.
type Reservation struct {
	ID        int64             `json:"id"`
	SlotID    int64             `json:"slot_id"`
	HolderID  int64             `json:"holder_id"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Заполняется для отображения (не из таблицы reservations)
	Slot *ScheduleSlot `json:"slot,omitempty"`
}

// IsActive запись учитывается в ёмкости слота
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}
