package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = "📚 Справка по командам:\n\n" +
	"Для учеников:\n" +
	"/find пн,ср 18:00 60 - Найти учителей, свободных в это время каждую неделю\n" +
	"/slots <id учителя> - Свободные слоты учителя\n" +
	"/slotinfo <id слота> - Информация о слоте\n" +
	"/book <id слота> - Записаться на слот\n" +
	"/cancelbooking <id записи> - Отменить запись\n" +
	"/mybookings - Мои записи\n\n" +
	"Для учителей:\n" +
	"/newslot 2030-03-04 10:00 60 - Создать слот\n" +
	"/completeslot <id> - Отметить занятие проведённым\n" +
	"/cancelslot <id> - Отменить слот вместе с записями\n" +
	"/reopenslot <id> - Снова открыть слот для записи\n" +
	"/week [2030-03-04] - Картинка расписания на неделю\n" +
	"/timeoff 2030-03-04 00:00 2030-03-10 00:00 [причина] - Добавить отсутствие\n" +
	"/removetimeoff <id> - Удалить отсутствие\n" +
	"/mytimeoff - Мои отсутствия\n" +
	"/availability пн,ср 09:00-12:00; пт 14:00-18:00 - Задать еженедельную доступность\n" +
	"/availability clear - Очистить доступность\n" +
	"/myavailability - Моя доступность\n\n" +
	"/help - Показать эту справку"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Добро пожаловать в Lesson Booking - бот для записи на занятия к учителям.\n\n"+
			"🆔 Ваш ID: %d\n"+
			"Ученикам он нужен, чтобы найти ваши слоты: /slots %d\n\n"+
			"Все команды: /help",
		update.Message.From.FirstName,
		s.userID,
		s.userID,
	)

	h.sendMessage(ctx, b, s.chatID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	s, ok := requireSender(update)
	if !ok {
		return
	}

	h.sendMessage(ctx, b, s.chatID, helpText)
}
