package model

import "errors"

// Ошибки ядра бронирования. Сервисы оборачивают их через fmt.Errorf("...: %w"),
// вызывающий код проверяет через errors.Is.
var (
	// Валидация
	ErrInvalidInterval = errors.New("invalid interval")

	// Конфликты бизнес-правил
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrAlreadyReserved   = errors.New("slot already reserved by holder")
	ErrSlotFull          = errors.New("slot is full")
	ErrAlreadyCanceled   = errors.New("reservation already canceled")
	ErrTimeOffConflict   = errors.New("time off overlaps existing time off")
	ErrScheduleConflict  = errors.New("interval overlaps committed slot")
	ErrHasFutureBookings = errors.New("owner has future bookings")
	ErrInvalidTransition = errors.New("invalid slot status transition")

	// Конкуренция за блокировку, можно повторить
	ErrBusy = errors.New("resource busy")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ErrorKind категория ошибки для вызывающей стороны
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindContention
	KindNotFound
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindContention:
		return "contention"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

var conflictErrors = []error{
	ErrSlotUnavailable,
	ErrAlreadyReserved,
	ErrSlotFull,
	ErrAlreadyCanceled,
	ErrTimeOffConflict,
	ErrScheduleConflict,
	ErrHasFutureBookings,
	ErrInvalidTransition,
}

// KindOf классифицирует ошибку. nil считается KindInternal только формально,
// вызывающий код не должен передавать nil.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInterval):
		return KindValidation
	case errors.Is(err, ErrBusy):
		return KindContention
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	}

	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return KindConflict
		}
	}

	return KindInternal
}

// IsRetryable true только для конкуренции за блокировку
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindContention
}

// Code возвращает стабильный код ошибки (для метрик и логов)
func Code(err error) string {
	if err == nil {
		return "ok"
	}

	codes := []struct {
		target error
		code   string
	}{
		{ErrInvalidInterval, "invalid_interval"},
		{ErrSlotUnavailable, "slot_unavailable"},
		{ErrAlreadyReserved, "already_reserved"},
		{ErrSlotFull, "slot_full"},
		{ErrAlreadyCanceled, "already_canceled"},
		{ErrTimeOffConflict, "time_off_conflict"},
		{ErrScheduleConflict, "schedule_conflict"},
		{ErrHasFutureBookings, "has_future_bookings"},
		{ErrInvalidTransition, "invalid_transition"},
		{ErrBusy, "busy"},
		{ErrNotFound, "not_found"},
		{ErrForbidden, "forbidden"},
	}

	for _, c := range codes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}

	return "internal"
}
