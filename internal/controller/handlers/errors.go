package handlers

import (
	"errors"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// errorMessages тексты для ошибок ядра бронирования
var errorMessages = []struct {
	err  error
	text string
}{
	{errBadArgs, "❌ Неверный формат команды. Подробнее: /help"},
	{model.ErrInvalidInterval, "❌ Некорректный интервал времени."},
	{model.ErrSlotUnavailable, "❌ Этот слот недоступен для записи."},
	{model.ErrAlreadyReserved, "⚠️ Вы уже записаны на этот слот."},
	{model.ErrSlotFull, "😔 Слот уже занят другим учеником."},
	{model.ErrAlreadyCanceled, "⚠️ Запись уже отменена."},
	{model.ErrTimeOffConflict, "❌ Период пересекается с уже добавленным отсутствием."},
	{model.ErrScheduleConflict, "❌ Пересечение с занятием, на которое уже есть запись."},
	{model.ErrHasFutureBookings, "❌ Нельзя менять расписание, пока есть будущие записи."},
	{model.ErrInvalidTransition, "❌ Это действие недоступно для слота в текущем статусе."},
	{model.ErrBusy, "⏳ Слот сейчас обрабатывается. Попробуйте ещё раз."},
	{model.ErrNotFound, "❌ Не найдено."},
	{model.ErrForbidden, "⛔️ Недостаточно прав."},
}

// errorMessage текст ошибки для пользователя
func errorMessage(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.text
		}
	}
	return "❌ Произошла ошибка. Попробуйте позже."
}
