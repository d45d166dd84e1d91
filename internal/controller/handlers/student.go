package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	// slotsListPeriod на сколько вперёд показываем слоты учителя
	slotsListPeriod = 14 * 24 * time.Hour
	slotsListLimit  = 20
)

// HandleBook обрабатывает команду /book <id слота>
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	args := commandArgs(s.text)
	if len(args) != 1 {
		h.usage(ctx, b, s, "Пример: /book 42")
		return
	}
	slotID, err := parseID(args[0])
	if err != nil {
		h.usage(ctx, b, s, "Пример: /book 42")
		return
	}

	reservation, err := h.reservationService.Book(ctx, slotID, s.userID)
	if err != nil {
		h.replyError(ctx, b, s, "book", err)
		return
	}

	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf(
		"✅ Вы записаны!\n\n"+
			"📝 Запись #%d\n"+
			"📅 %s\n\n"+
			"Отменить: /cancelbooking %d",
		reservation.ID,
		formatInterval(reservation.Slot.Interval, h.location),
		reservation.ID,
	))
}

// HandleCancelBooking обрабатывает команду /cancelbooking <id записи>
func (h *Handlers) HandleCancelBooking(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	args := commandArgs(s.text)
	if len(args) != 1 {
		h.usage(ctx, b, s, "Пример: /cancelbooking 7")
		return
	}
	reservationID, err := parseID(args[0])
	if err != nil {
		h.usage(ctx, b, s, "Пример: /cancelbooking 7")
		return
	}

	if _, err := h.reservationService.CancelForHolder(ctx, reservationID, s.userID); err != nil {
		h.replyError(ctx, b, s, "cancel_booking", err)
		return
	}

	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf("✅ Запись #%d отменена", reservationID))
}

// HandleMyBookings обрабатывает команду /mybookings
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	reservations, err := h.reservationService.ListHolderReservations(ctx, s.userID)
	if err != nil {
		h.replyError(ctx, b, s, "my_bookings", err)
		return
	}

	if len(reservations) == 0 {
		h.sendMessage(ctx, b, s.chatID, "📭 У вас пока нет записей.\n\nНайти учителя: /find")
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 Ваши записи:\n")
	for _, res := range reservations {
		st := reservationStatusDisplay(res.Status)
		sb.WriteString(fmt.Sprintf("\n%s #%d", st.Emoji, res.ID))
		if res.Slot != nil {
			sb.WriteString(" " + formatInterval(res.Slot.Interval, h.location))
		}
		sb.WriteString(" - " + st.Text)
	}

	h.sendMessage(ctx, b, s.chatID, sb.String())
}

// HandleFind обрабатывает команду /find <дни> <HH:MM> <минуты>
func (h *Handlers) HandleFind(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	query, err := parseCandidateQuery(commandArgs(s.text))
	if err != nil {
		h.usage(ctx, b, s, "Пример: /find пн,ср 18:00 60")
		return
	}

	owners, err := h.matcherService.FindCandidates(ctx, query)
	if err != nil {
		h.replyError(ctx, b, s, "find", err)
		return
	}

	h.logger.Debug("Candidates search",
		zap.Int64("user_id", s.userID),
		zap.Int("found", len(owners)),
	)

	if len(owners) == 0 {
		h.sendMessage(ctx, b, s.chatID, "😔 Нет учителей, свободных в это время каждую неделю.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 Свободные учителя (%d):\n", len(owners)))
	for _, owner := range owners {
		sb.WriteString(fmt.Sprintf("\n👤 %d - слоты: /slots %d", owner, owner))
	}
	h.sendMessage(ctx, b, s.chatID, sb.String())
}

func parseCandidateQuery(args []string) (service.CandidateQuery, error) {
	if len(args) != 3 {
		return service.CandidateQuery{}, fmt.Errorf("%w: want 3 args", errBadArgs)
	}

	days, err := parseDays(args[0])
	if err != nil {
		return service.CandidateQuery{}, err
	}
	start, err := model.ParseWallClock(args[1])
	if err != nil {
		return service.CandidateQuery{}, fmt.Errorf("%w: %v", errBadArgs, err)
	}
	duration, err := parseMinutes(args[2])
	if err != nil {
		return service.CandidateQuery{}, err
	}

	return service.CandidateQuery{Days: days, StartTime: start, Duration: duration}, nil
}

// HandleSlots обрабатывает команду /slots <id учителя>: ближайшие слоты, на которые можно записаться
func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	args := commandArgs(s.text)
	if len(args) != 1 {
		h.usage(ctx, b, s, "Пример: /slots 123456789")
		return
	}
	ownerID, err := parseID(args[0])
	if err != nil {
		h.usage(ctx, b, s, "Пример: /slots 123456789")
		return
	}

	now := h.now()
	slots, err := h.slotService.ListOwnerSlots(ctx, ownerID, now, now.Add(slotsListPeriod))
	if err != nil {
		h.replyError(ctx, b, s, "slots", err)
		return
	}

	var sb strings.Builder
	shown := 0
	for _, slot := range slots {
		if !slot.IsBookable(now) {
			continue
		}
		active, err := h.reservationService.CountActive(ctx, slot.ID)
		if err != nil {
			h.replyError(ctx, b, s, "slots", err)
			return
		}
		if active >= slot.EffectiveCapacity() {
			continue
		}

		sb.WriteString(fmt.Sprintf("\n🟢 #%d %s - /book %d", slot.ID, formatInterval(slot.Interval, h.location), slot.ID))
		shown++
		if shown == slotsListLimit {
			break
		}
	}

	if shown == 0 {
		h.sendMessage(ctx, b, s.chatID, "📭 У учителя нет свободных слотов на ближайшие две недели.")
		return
	}
	h.sendMessage(ctx, b, s.chatID, "📅 Свободные слоты:\n"+sb.String())
}

// HandleSlotInfo обрабатывает команду /slotinfo <id слота>
func (h *Handlers) HandleSlotInfo(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	args := commandArgs(s.text)
	if len(args) != 1 {
		h.usage(ctx, b, s, "Пример: /slotinfo 42")
		return
	}
	slotID, err := parseID(args[0])
	if err != nil {
		h.usage(ctx, b, s, "Пример: /slotinfo 42")
		return
	}

	slot, err := h.slotService.GetSlot(ctx, slotID)
	if err != nil {
		h.replyError(ctx, b, s, "slot_info", err)
		return
	}
	active, err := h.reservationService.CountActive(ctx, slotID)
	if err != nil {
		h.replyError(ctx, b, s, "slot_info", err)
		return
	}

	st := slotStatusDisplay(slot.Status)
	h.sendMessage(ctx, b, s.chatID, fmt.Sprintf(
		"%s Слот #%d\n\n"+
			"👤 Учитель: %d\n"+
			"📅 %s\n"+
			"⏱ %s\n"+
			"📊 Статус: %s\n"+
			"👥 Записей: %d из %d",
		st.Emoji, slot.ID,
		slot.OwnerID,
		formatInterval(slot.Interval, h.location),
		formatDuration(slot.Interval.Duration()),
		st.Text,
		active, slot.EffectiveCapacity(),
	))
}
