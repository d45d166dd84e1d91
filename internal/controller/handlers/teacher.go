package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/render"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// timeOffListPeriod на сколько вперёд показываем отсутствия
const timeOffListPeriod = 365 * 24 * time.Hour

// HandleNewSlot обрабатывает команду /newslot <дата> <HH:MM> <минуты>
func (h *Handlers) HandleNewSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	const example = "Пример: /newslot 2030-03-04 10:00 60"
	args := commandArgs(s.text)
	if len(args) != 3 {
		h.usage(ctx, b, s, example)
		return
	}
	start, err := parseDateTime(args[0], args[1], h.location)
	if err != nil {
		h.usage(ctx, b, s, example)
		return
	}
	duration, err := parseMinutes(args[2])
	if err != nil {
		h.usage(ctx, b, s, example)
		return
	}

	interval, err := model.NewTimeInterval(start, start.Add(duration))
	if err != nil {
		h.replyError(ctx, b, s, "new_slot", err)
		return
	}

	slot, err := h.slotService.CreateSlot(ctx, s.userID, interval)
	if err != nil {
		h.replyError(ctx, b, s, "new_slot", err)
		return
	}

	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf(
		"✅ Слот создан!\n\n"+
			"🆔 #%d\n"+
			"📅 %s\n\n"+
			"Ученики записываются командой /book %d",
		slot.ID,
		formatInterval(slot.Interval, h.location),
		slot.ID,
	))
}

// slotCommand разбирает "<команда> <id слота>"
func (h *Handlers) slotCommand(ctx context.Context, b *bot.Bot, update *models.Update, example string) (sender, int64, bool) {
	s, ok := requireSender(update)
	if !ok {
		return sender{}, 0, false
	}

	args := commandArgs(s.text)
	if len(args) != 1 {
		h.usage(ctx, b, s, example)
		return sender{}, 0, false
	}
	slotID, err := parseID(args[0])
	if err != nil {
		h.usage(ctx, b, s, example)
		return sender{}, 0, false
	}
	return s, slotID, true
}

// HandleCompleteSlot обрабатывает команду /completeslot <id>
func (h *Handlers) HandleCompleteSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, slotID, ok := h.slotCommand(ctx, b, update, "Пример: /completeslot 42")
	if !ok {
		return
	}

	if _, err := h.slotService.CompleteSlot(ctx, slotID, s.userID); err != nil {
		h.replyError(ctx, b, s, "complete_slot", err)
		return
	}
	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf("✔️ Занятие #%d отмечено проведённым", slotID))
}

// HandleCancelSlot обрабатывает команду /cancelslot <id>
func (h *Handlers) HandleCancelSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, slotID, ok := h.slotCommand(ctx, b, update, "Пример: /cancelslot 42")
	if !ok {
		return
	}

	canceled, err := h.slotService.CancelSlot(ctx, slotID, s.userID)
	if err != nil {
		h.replyError(ctx, b, s, "cancel_slot", err)
		return
	}

	text := fmt.Sprintf("⚫️ Слот #%d отменён", slotID)
	if canceled > 0 {
		text += fmt.Sprintf("\nОтменено записей: %d", canceled)
	}
	h.sendMessage(ctx, b, s.chatID, text)
}

// HandleReopenSlot обрабатывает команду /reopenslot <id>
func (h *Handlers) HandleReopenSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, slotID, ok := h.slotCommand(ctx, b, update, "Пример: /reopenslot 42")
	if !ok {
		return
	}

	if _, err := h.slotService.ReopenSlot(ctx, slotID, s.userID); err != nil {
		h.replyError(ctx, b, s, "reopen_slot", err)
		return
	}
	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf("🟢 Слот #%d снова открыт для записи", slotID))
}

// HandleTimeOff обрабатывает команду /timeoff <дата> <HH:MM> <дата> <HH:MM> [причина]
func (h *Handlers) HandleTimeOff(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	const example = "Пример: /timeoff 2030-03-04 00:00 2030-03-10 00:00 отпуск"
	args := commandArgs(s.text)
	if len(args) < 4 {
		h.usage(ctx, b, s, example)
		return
	}
	start, err := parseDateTime(args[0], args[1], h.location)
	if err != nil {
		h.usage(ctx, b, s, example)
		return
	}
	end, err := parseDateTime(args[2], args[3], h.location)
	if err != nil {
		h.usage(ctx, b, s, example)
		return
	}

	interval, err := model.NewTimeInterval(start, end)
	if err != nil {
		h.replyError(ctx, b, s, "time_off", err)
		return
	}

	off, err := h.guardService.AddTimeOff(ctx, s.userID, interval, strings.Join(args[4:], " "))
	if err != nil {
		h.replyError(ctx, b, s, "time_off", err)
		return
	}

	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf(
		"🏖 Отсутствие #%d добавлено\n📅 %s\n\nУдалить: /removetimeoff %d",
		off.ID, formatInterval(off.Interval, h.location), off.ID,
	))
}

// HandleRemoveTimeOff обрабатывает команду /removetimeoff <id>
func (h *Handlers) HandleRemoveTimeOff(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, id, ok := h.slotCommand(ctx, b, update, "Пример: /removetimeoff 3")
	if !ok {
		return
	}

	if err := h.guardService.RemoveTimeOff(ctx, id, s.userID); err != nil {
		h.replyError(ctx, b, s, "remove_time_off", err)
		return
	}
	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf("✅ Отсутствие #%d удалено", id))
}

// HandleMyTimeOff обрабатывает команду /mytimeoff
func (h *Handlers) HandleMyTimeOff(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	now := h.now()
	offs, err := h.guardService.ListTimeOffs(ctx, s.userID, now, now.Add(timeOffListPeriod))
	if err != nil {
		h.replyError(ctx, b, s, "my_time_off", err)
		return
	}

	if len(offs) == 0 {
		h.sendMessage(ctx, b, s.chatID, "📭 Запланированных отсутствий нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏖 Ваши отсутствия:\n")
	for _, off := range offs {
		sb.WriteString(fmt.Sprintf("\n#%d %s", off.ID, formatInterval(off.Interval, h.location)))
		if off.Reason != "" {
			sb.WriteString(" - " + off.Reason)
		}
	}
	h.sendMessage(ctx, b, s.chatID, sb.String())
}

// HandleAvailability обрабатывает команду /availability <окна> | clear
func (h *Handlers) HandleAvailability(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	const example = "Пример: /availability пн,ср 09:00-12:00; пт 14:00-18:00\nОчистить: /availability clear"
	tail := commandTail(s.text)
	if tail == "" {
		h.usage(ctx, b, s, example)
		return
	}

	var windows []*model.RecurringAvailability
	if !strings.EqualFold(tail, "clear") {
		var err error
		windows, err = parseAvailability(s.userID, tail)
		if err != nil {
			h.usage(ctx, b, s, example)
			return
		}
	}

	saved, err := h.guardService.ReplaceAvailability(ctx, s.userID, windows)
	if err != nil {
		h.replyError(ctx, b, s, "availability", err)
		return
	}

	h.sendMessage(ctx, b, s.chatID, "✅ Доступность обновлена\n\n"+formatAvailability(saved))
}

// HandleMyAvailability обрабатывает команду /myavailability
func (h *Handlers) HandleMyAvailability(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	windows, err := h.guardService.GetAvailability(ctx, s.userID)
	if err != nil {
		h.replyError(ctx, b, s, "my_availability", err)
		return
	}
	h.sendMessage(ctx, b, s.chatID, formatAvailability(windows))
}

// HandleWeek обрабатывает команду /week [дата]: картинка расписания учителя на неделю
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	now := h.now()
	date := now
	if args := commandArgs(s.text); len(args) > 0 {
		var err error
		if date, err = parseDate(args[0], h.location); err != nil {
			h.usage(ctx, b, s, "Пример: /week 2030-03-04")
			return
		}
	}

	from, to := render.WeekBounds(date, h.location)
	slots, err := h.slotService.ListOwnerSlots(ctx, s.userID, from, to)
	if err != nil {
		h.replyError(ctx, b, s, "week", err)
		return
	}
	offs, err := h.guardService.ListTimeOffs(ctx, s.userID, from, to)
	if err != nil {
		h.replyError(ctx, b, s, "week", err)
		return
	}

	imageData, err := render.GenerateWeekImage(render.Week{
		Date:     date,
		Location: h.location,
		Now:      now,
		Slots:    slots,
		TimeOffs: offs,
	})
	if err != nil {
		h.replyError(ctx, b, s, "week", err)
		return
	}

	caption := fmt.Sprintf("🗓 Неделя %s - %s", from.Format("02.01"), to.AddDate(0, 0, -1).Format("02.01.2006"))
	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: s.chatID,
		Photo: &models.InputFileUpload{
			Filename: "week.png",
			Data:     bytes.NewReader(imageData),
		},
		Caption: caption,
	})
	if err != nil {
		h.logger.Error("Failed to send week image",
			zap.Int64("chat_id", s.chatID),
			zap.Error(err),
		)
	}
}
