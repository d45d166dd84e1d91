// Package render рисует недельное расписание учителя в PNG.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 130
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 16.0
	slotTimeFontSize   = 15.0
	legendItemFontSize = 12.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 90}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{225, 225, 225, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotOpenColor      = color.RGBA{133, 193, 85, 220}
	slotReservedColor  = color.RGBA{255, 182, 193, 255}
	slotCompletedColor = color.RGBA{140, 170, 220, 220}
	slotCancelledColor = color.RGBA{170, 170, 170, 200}
	timeOffColor       = color.RGBA{90, 90, 100, 70}
	slotTextColor      = color.RGBA{20, 24, 28, 230}
	slotShadowColor    = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type fontStyle int

const (
	fontRegular fontStyle = iota
	fontBold
)

var (
	fontsMu sync.Mutex
	fonts   = make(map[fontStyle]*opentype.Font)
)

// setFont выбирает шрифт нужного размера, при ошибке - basicfont
func setFont(dc *gg.Context, size float64, style fontStyle) {
	fontsMu.Lock()
	parsed, ok := fonts[style]
	if !ok {
		data := goregular.TTF
		if style == fontBold {
			data = gobold.TTF
		}
		var err error
		parsed, err = opentype.Parse(data)
		if err != nil {
			parsed = nil
		}
		fonts[style] = parsed
	}
	fontsMu.Unlock()

	if parsed != nil {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// Week данные для картинки одной недели
type Week struct {
	// Любой момент внутри недели, неделя считается с понедельника
	Date     time.Time
	Location *time.Location
	Now      time.Time
	Slots    []*model.ScheduleSlot
	TimeOffs []*model.TimeOff
}

type weekBounds struct {
	start time.Time
	end   time.Time // начало следующей недели
}

type hourRange struct {
	start int
	end   int
	total int
}

// WeekBounds понедельник 00:00 и следующий понедельник 00:00 в зоне loc
func WeekBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	w := normalizeToWeekBounds(date.In(loc))
	return w.start, w.end
}

// GenerateWeekImage рисует слоты и периоды отсутствия за неделю
func GenerateWeekImage(week Week) ([]byte, error) {
	loc := week.Location
	if loc == nil {
		loc = time.UTC
	}
	bounds := normalizeToWeekBounds(week.Date.In(loc))
	now := week.Now.In(loc)
	today := normalizeToDay(now)
	highlightToday := !today.Before(bounds.start) && today.Before(bounds.end)

	slotsByDay := groupSlotsByDay(week.Slots, loc)
	hours := calculateHourRange(week.Slots, loc)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, bounds)
	drawHourLabels(dc, hours, cellHeight)

	day := bounds.start
	for i := 0; i < totalDaysInWeek; i++ {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, highlightToday && day.Equal(today))
		drawDayHeader(dc, day, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		drawTimeOffs(dc, week.TimeOffs, day, loc, x, y, dayWidth, hours, cellHeight)
		for _, slot := range slotsByDay[day.Format("2006-01-02")] {
			drawSlot(dc, slot, loc, x, y, dayWidth, hours, cellHeight)
		}

		day = day.AddDate(0, 0, 1)
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeToWeekBounds(date time.Time) weekBounds {
	day := normalizeToDay(date)

	daysSinceMonday := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	start := day.AddDate(0, 0, -daysSinceMonday)
	return weekBounds{start: start, end: start.AddDate(0, 0, 7)}
}

func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func groupSlotsByDay(slots []*model.ScheduleSlot, loc *time.Location) map[string][]*model.ScheduleSlot {
	byDay := make(map[string][]*model.ScheduleSlot)
	for _, slot := range slots {
		key := slot.Interval.Start.In(loc).Format("2006-01-02")
		byDay[key] = append(byDay[key], slot)
	}
	return byDay
}

// calculateHourRange часы, которые покрывают все слоты, с запасом
func calculateHourRange(slots []*model.ScheduleSlot, loc *time.Location) hourRange {
	minHour, maxHour := 24, 0

	for _, slot := range slots {
		start := slot.Interval.Start.In(loc)
		end := slot.Interval.End.In(loc)

		startH := start.Hour()
		endH := end.Hour()
		if end.Minute() > 0 {
			endH++
		}
		if end.Day() != start.Day() {
			endH = 24
		}
		minHour = min(minHour, startH)
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	startHour := max(minHour-hourPaddingTop, 0)
	endHour := min(maxHour+hourPaddingBot, 24)

	return hourRange{start: startHour, end: endHour, total: endHour - startHour}
}

func drawHeader(dc *gg.Context, week weekBounds) {
	last := week.end.AddDate(0, 0, -1)
	title := monthName(week.start.Month())
	if last.Month() != week.start.Month() {
		title += " - " + monthName(last.Month())
	}
	title += fmt.Sprintf(" %d", last.Year())

	setFont(dc, titleFontSize, fontBold)
	dc.SetColor(textColor)
	_, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, 10, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	setFont(dc, hourLabelFontSize, fontRegular)
	dc.SetColor(hourLabelColor)

	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	setFont(dc, dayFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// hourOffset положение момента t на шкале дня day, в часах от начала шкалы
func hourOffset(t, day time.Time, hours hourRange) float64 {
	h := t.Sub(day).Hours() - float64(hours.start)
	return max(0, min(h, float64(hours.total)))
}

// drawTimeOffs затеняет части дня, попадающие в периоды отсутствия
func drawTimeOffs(dc *gg.Context, offs []*model.TimeOff, day time.Time, loc *time.Location,
	x, y float64, dayWidth int, hours hourRange, cellHeight float64) {

	dayEnd := day.AddDate(0, 0, 1)
	for _, off := range offs {
		start := off.Interval.Start.In(loc)
		end := off.Interval.End.In(loc)
		if !start.Before(dayEnd) || !end.After(day) {
			continue
		}

		top := hourOffset(start, day, hours)
		bottom := hourOffset(end, day, hours)
		if bottom <= top {
			continue
		}

		dc.SetColor(timeOffColor)
		dc.DrawRectangle(x, y+top*cellHeight, float64(dayWidth), (bottom-top)*cellHeight)
		dc.Fill()
	}
}

func drawSlot(dc *gg.Context, slot *model.ScheduleSlot, loc *time.Location,
	x, y float64, dayWidth int, hours hourRange, cellHeight float64) {

	start := slot.Interval.Start.In(loc)
	day := normalizeToDay(start)
	top := hourOffset(start, day, hours)
	bottom := hourOffset(slot.Interval.End.In(loc), day, hours)

	slotY := y + top*cellHeight
	slotHeight := max((bottom-top)*cellHeight, minSlotHeight)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)
	fillColor := slotColor(slot.Status)

	// Тень
	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fillColor)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fillColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	setFont(dc, slotTimeFontSize, fontRegular)
	dc.SetColor(slotTextColor)
	txtX := x + dayPaddingX + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(start.Format("15:04"), txtX, txtY, 0, 0)

	if slotHeight > 36 {
		setFont(dc, slotTimeFontSize-3, fontRegular)
		dc.DrawStringAnchored(fmt.Sprintf("#%d", slot.ID), txtX, txtY+16, 0, 0)
	}
}

func slotColor(status model.SlotStatus) color.RGBA {
	switch status {
	case model.SlotStatusOpen:
		return slotOpenColor
	case model.SlotStatusReserved:
		return slotReservedColor
	case model.SlotStatusCompleted:
		return slotCompletedColor
	default:
		return slotCancelledColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60.0
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Свободно", slotOpenColor},
		{"Забронировано", slotReservedColor},
		{"Проведено", slotCompletedColor},
		{"Отменено", slotCancelledColor},
		{"Отсутствие", timeOffColor},
	}

	const boxW, boxH = 20.0, 14.0
	liX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	liY := float64(imageHeight) - 160.0

	setFont(dc, legendItemFontSize, fontRegular)
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(liX, liY, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, liX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

func weekdayShort(weekday time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[weekday]
}

func monthName(month time.Month) string {
	return [...]string{
		"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
	}[month-1]
}
