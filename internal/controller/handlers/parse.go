package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// errBadArgs неверные аргументы команды, пользователю показывается подсказка
var errBadArgs = errors.New("bad command arguments")

var weekdayAliases = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday, "вс": time.Sunday, "воскресенье": time.Sunday,
	"mon": time.Monday, "monday": time.Monday, "пн": time.Monday, "понедельник": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday, "вт": time.Tuesday, "вторник": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "ср": time.Wednesday, "среда": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday, "чт": time.Thursday, "четверг": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "пт": time.Friday, "пятница": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "сб": time.Saturday, "суббота": time.Saturday,
}

// commandArgs аргументы после команды ("/book@my_bot 12" -> ["12"])
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// commandTail текст после команды целиком
func commandTail(text string) string {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", errBadArgs, s)
	}
	return id, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	day, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: bad weekday %q", errBadArgs, s)
	}
	return day, nil
}

// parseDays "mon,wed" или "пн,ср", повторы убираются
func parseDays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)

	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		day, err := parseWeekday(part)
		if err != nil {
			return nil, err
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no weekdays", errBadArgs)
	}
	return days, nil
}

// parseDate "2030-03-04" или "04.03.2030" в зоне loc
func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad date %q", errBadArgs, s)
}

// parseDateTime дата и "HH:MM" в зоне loc
func parseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := parseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	wc, err := model.ParseWallClock(clock)
	if err != nil || wc >= model.EndOfDay {
		return time.Time{}, fmt.Errorf("%w: bad time %q", errBadArgs, clock)
	}
	return wc.On(day, loc), nil
}

// parseMinutes длительность в минутах, положительная
func parseMinutes(s string) (time.Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: bad duration %q", errBadArgs, s)
	}
	return time.Duration(n) * time.Minute, nil
}

// parseAvailability "mon,wed 09:00-12:00; fri 14:00-24:00"
func parseAvailability(ownerID int64, s string) ([]*model.RecurringAvailability, error) {
	var windows []*model.RecurringAvailability

	for _, item := range strings.Split(s, ";") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: bad window %q", errBadArgs, strings.TrimSpace(item))
		}

		days, err := parseDays(fields[0])
		if err != nil {
			return nil, err
		}

		from, to, ok := strings.Cut(fields[1], "-")
		if !ok {
			return nil, fmt.Errorf("%w: bad range %q", errBadArgs, fields[1])
		}
		start, err := model.ParseWallClock(from)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadArgs, err)
		}
		end, err := model.ParseWallClock(to)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadArgs, err)
		}

		for _, day := range days {
			windows = append(windows, &model.RecurringAvailability{
				OwnerID:   ownerID,
				Weekday:   day,
				StartTime: start,
				EndTime:   end,
			})
		}
	}

	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: no windows", errBadArgs)
	}
	return windows, nil
}
