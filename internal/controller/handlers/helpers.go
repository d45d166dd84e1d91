package handlers

import (
	"context"
	"errors"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// sender автор сообщения и чат для ответа
type sender struct {
	userID int64
	chatID int64
	text   string
}

// requireSender достаёт автора сообщения. Сообщения каналов (без From) игнорируются.
func requireSender(update *models.Update) (sender, bool) {
	if update.Message == nil || update.Message.From == nil {
		return sender{}, false
	}
	return sender{
		userID: update.Message.From.ID,
		chatID: update.Message.Chat.ID,
		text:   update.Message.Text,
	}, true
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// replyError логирует ошибку операции и отвечает пользователю понятным текстом.
// Отказы бизнес-правил пишутся в Debug, всё остальное в Error.
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, s sender, op string, err error) {
	if model.KindOf(err) == model.KindInternal && !errors.Is(err, errBadArgs) {
		h.logger.Error("Command failed",
			zap.String("op", op),
			zap.Int64("user_id", s.userID),
			zap.Error(err),
		)
	} else {
		h.logger.Debug("Command rejected",
			zap.String("op", op),
			zap.Int64("user_id", s.userID),
			zap.String("reason", model.Code(err)),
		)
	}
	h.sendError(ctx, b, s.chatID, errorMessage(err))
}

// usage подсказка по формату команды
func (h *Handlers) usage(ctx context.Context, b *bot.Bot, s sender, text string) {
	h.sendError(ctx, b, s.chatID, "❌ Неверный формат.\n\n"+text)
}
