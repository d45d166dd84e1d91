package model

import (
	"fmt"
	"sort"
	"time"
)

// TimeInterval полуоткрытый интервал [Start, End) в UTC
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeInterval создаёт интервал, требуя start < end
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	interval := TimeInterval{Start: start.UTC(), End: end.UTC()}
	if err := interval.Validate(); err != nil {
		return TimeInterval{}, err
	}
	return interval, nil
}

// MustTimeInterval как NewTimeInterval, но паникует на невалидных границах
func MustTimeInterval(start, end time.Time) TimeInterval {
	interval, err := NewTimeInterval(start, end)
	if err != nil {
		panic(err)
	}
	return interval
}

// Validate проверяет инвариант start < end (нулевое значение невалидно)
func (i TimeInterval) Validate() error {
	if !i.Start.Before(i.End) {
		return fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidInterval,
			i.Start.Format(time.RFC3339),
			i.End.Format(time.RFC3339),
		)
	}
	return nil
}

// Overlaps сообщает, есть ли у интервалов общий момент времени.
// Касание концами пересечением не считается.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Overlaps симметричная форма TimeInterval.Overlaps
func Overlaps(a, b TimeInterval) bool {
	return a.Overlaps(b)
}

// Contains проверяет, что момент t попадает в [Start, End)
func (i TimeInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration длительность интервала
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// AnyOverlap проверяет, пересекается ли хоть один интервал из a хоть с одним из b.
// Списки сортируются по началу и проходятся двумя указателями: интервал,
// который заканчивается раньше, уже не может пересечься с оставшимися
// интервалами другого списка.
func AnyOverlap(a, b []TimeInterval) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	left := sortedByStart(a)
	right := sortedByStart(b)

	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if left[i].Overlaps(right[j]) {
			return true
		}
		if left[i].End.After(right[j].End) {
			j++
		} else {
			i++
		}
	}

	return false
}

func sortedByStart(intervals []TimeInterval) []TimeInterval {
	sorted := make([]TimeInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}
