package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// statusDisplay emoji и текст статуса
type statusDisplay struct {
	Emoji string
	Text  string
}

func slotStatusDisplay(status model.SlotStatus) statusDisplay {
	displays := map[model.SlotStatus]statusDisplay{
		model.SlotStatusOpen:      {"🟢", "Свободен"},
		model.SlotStatusReserved:  {"🔴", "Занят"},
		model.SlotStatusCompleted: {"✔️", "Проведён"},
		model.SlotStatusCancelled: {"⚫️", "Отменён"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return statusDisplay{"❓", "Неизвестно"}
}

func reservationStatusDisplay(status model.ReservationStatus) statusDisplay {
	switch status {
	case model.ReservationStatusActive:
		return statusDisplay{"✅", "Активна"}
	case model.ReservationStatusCanceled:
		return statusDisplay{"❌", "Отменена"}
	}
	return statusDisplay{"❓", "Неизвестно"}
}

// formatDateTime дата и время в зоне бота
func formatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// formatInterval "04.03.2030 (Пн) 10:00-11:00", конец с датой если другой день
func formatInterval(interval model.TimeInterval, loc *time.Location) string {
	start := interval.Start.In(loc)
	end := interval.End.In(loc)

	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return fmt.Sprintf("%s (%s) %s-%s",
			start.Format("02.01.2006"), weekdayShort(start.Weekday()),
			start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", formatDateTime(start, loc), formatDateTime(end, loc))
}

// formatDuration длительность в минутах
func formatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

func weekdayName(weekday time.Weekday) string {
	names := []string{
		"Воскресенье",
		"Понедельник",
		"Вторник",
		"Среда",
		"Четверг",
		"Пятница",
		"Суббота",
	}
	if weekday >= 0 && int(weekday) < len(names) {
		return names[weekday]
	}
	return "Неизвестно"
}

func weekdayShort(weekday time.Weekday) string {
	names := []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	if weekday >= 0 && int(weekday) < len(names) {
		return names[weekday]
	}
	return "?"
}

// formatSlot одна строка списка слотов
func formatSlot(slot *model.ScheduleSlot, loc *time.Location) string {
	st := slotStatusDisplay(slot.Status)
	return fmt.Sprintf("%s #%d %s - %s", st.Emoji, slot.ID, formatInterval(slot.Interval, loc), st.Text)
}

// formatAvailability окна по дням недели, начиная с понедельника
func formatAvailability(windows []*model.RecurringAvailability) string {
	if len(windows) == 0 {
		return "📭 Расписание доступности не задано"
	}

	byDay := make(map[time.Weekday][]string)
	for _, w := range windows {
		byDay[w.Weekday] = append(byDay[w.Weekday], fmt.Sprintf("%s-%s", w.StartTime, w.EndTime))
	}

	var sb strings.Builder
	sb.WriteString("🗓 Еженедельная доступность:\n")
	for i := 1; i <= 7; i++ {
		day := time.Weekday(i % 7)
		if ranges, ok := byDay[day]; ok {
			sb.WriteString(fmt.Sprintf("\n%s: %s", weekdayName(day), strings.Join(ranges, ", ")))
		}
	}
	return sb.String()
}
