package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekBounds(t *testing.T) {
	// 2030-03-06 среда
	wed := time.Date(2030, 3, 6, 15, 30, 0, 0, time.UTC)
	start, end := WeekBounds(wed, time.UTC)
	assert.Equal(t, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2030, 3, 11, 0, 0, 0, 0, time.UTC), end)

	// воскресенье относится к прошлой неделе
	sun := time.Date(2030, 3, 10, 23, 0, 0, 0, time.UTC)
	start, _ = WeekBounds(sun, time.UTC)
	assert.Equal(t, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC), start)
}

func TestCalculateHourRange(t *testing.T) {
	assert.Equal(t, hourRange{start: 7, end: 21, total: 14}, calculateHourRange(nil, time.UTC))

	slots := []*model.ScheduleSlot{
		{Interval: model.MustTimeInterval(
			time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC),
			time.Date(2030, 3, 4, 11, 30, 0, 0, time.UTC),
		)},
	}
	assert.Equal(t, hourRange{start: 9, end: 13, total: 4}, calculateHourRange(slots, time.UTC))
}

func TestGenerateWeekImage(t *testing.T) {
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)
	at := func(d, h int) time.Time { return day.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour) }

	week := Week{
		Date:     day,
		Location: time.UTC,
		Now:      at(1, 12),
		Slots: []*model.ScheduleSlot{
			{ID: 1, Interval: model.MustTimeInterval(at(0, 9), at(0, 10)), Status: model.SlotStatusOpen},
			{ID: 2, Interval: model.MustTimeInterval(at(1, 14), at(1, 15)), Status: model.SlotStatusReserved},
			{ID: 3, Interval: model.MustTimeInterval(at(2, 9), at(2, 10)), Status: model.SlotStatusCancelled},
		},
		TimeOffs: []*model.TimeOff{
			{ID: 1, Interval: model.MustTimeInterval(at(3, 0), at(5, 0))},
		},
	}

	data, err := GenerateWeekImage(week)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestGenerateWeekImage_EmptyWeekWithoutLocation(t *testing.T) {
	data, err := GenerateWeekImage(Week{Date: time.Now(), Now: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
