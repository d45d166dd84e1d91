package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WallClock время суток без даты, в минутах от полуночи.
// 24:00 допустимо только как конец окна.
type WallClock int

const (
	MinutesPerDay = 24 * 60
	EndOfDay      = WallClock(MinutesPerDay)
)

// NewWallClock создаёт время суток из часов и минут
func NewWallClock(hour, minute int) (WallClock, error) {
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: bad wall clock %02d:%02d", ErrInvalidInterval, hour, minute)
	}
	return WallClock(hour*60 + minute), nil
}

// ParseWallClock разбирает "HH:MM" (и "H:MM")
func ParseWallClock(s string) (WallClock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return 0, fmt.Errorf("%w: bad wall clock %q", ErrInvalidInterval, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: bad wall clock %q", ErrInvalidInterval, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: bad wall clock %q", ErrInvalidInterval, s)
	}

	return NewWallClock(hour, minute)
}

func (c WallClock) Hour() int   { return int(c) / 60 }
func (c WallClock) Minute() int { return int(c) % 60 }

func (c WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Add сдвигает время суток; результат может выйти за EndOfDay
func (c WallClock) Add(d time.Duration) WallClock {
	return c + WallClock(d/time.Minute)
}

// On возвращает момент этого времени суток в дату date (в зоне loc)
func (c WallClock) On(date time.Time, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

// RecurringAvailability еженедельное окно, в которое владелец (учитель) готов вести занятия
type RecurringAvailability struct {
	ID        int64        `json:"id"`
	GroupID   uuid.UUID    `json:"group_id"` // одна замена расписания = одна группа
	OwnerID   int64        `json:"owner_id"`
	Weekday   time.Weekday `json:"weekday"` // 0 = Sunday, 6 = Saturday
	StartTime WallClock    `json:"start_time"`
	EndTime   WallClock    `json:"end_time"`
	CreatedAt time.Time    `json:"created_at"`
}

// Validate проверяет день недели и start < end в пределах суток
func (a *RecurringAvailability) Validate() error {
	if a.Weekday < time.Sunday || a.Weekday > time.Saturday {
		return fmt.Errorf("%w: bad weekday %d", ErrInvalidInterval, a.Weekday)
	}
	if a.StartTime < 0 || a.EndTime > EndOfDay {
		return fmt.Errorf("%w: window %s-%s is outside the day", ErrInvalidInterval, a.StartTime, a.EndTime)
	}
	if a.StartTime >= a.EndTime {
		return fmt.Errorf("%w: window start %s is not before end %s", ErrInvalidInterval, a.StartTime, a.EndTime)
	}
	return nil
}

// Covers окно целиком содержит [start, end)
func (a *RecurringAvailability) Covers(start, end WallClock) bool {
	return a.StartTime <= start && a.EndTime >= end
}
