package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/controller/handlers"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	reservationService *service.ReservationService,
	slotService *service.SlotService,
	matcherService *service.MatcherService,
	guardService *service.GuardService,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	cmdHandlers := handlers.NewHandlers(
		reservationService,
		slotService,
		matcherService,
		guardService,
		location,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	exact := func(cmd string, fn bot.HandlerFunc) {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypeExact, fn)
	}
	// Команды с аргументами
	prefix := func(cmd string, fn bot.HandlerFunc) {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, fn)
	}

	exact("/start", c.handlers.HandleStart)
	exact("/help", c.handlers.HandleHelp)

	// Для учеников
	prefix("/book", c.handlers.HandleBook)
	prefix("/cancelbooking", c.handlers.HandleCancelBooking)
	exact("/mybookings", c.handlers.HandleMyBookings)
	prefix("/find", c.handlers.HandleFind)
	prefix("/slots", c.handlers.HandleSlots)
	prefix("/slotinfo", c.handlers.HandleSlotInfo)

	// Для учителей
	prefix("/newslot", c.handlers.HandleNewSlot)
	prefix("/completeslot", c.handlers.HandleCompleteSlot)
	prefix("/cancelslot", c.handlers.HandleCancelSlot)
	prefix("/reopenslot", c.handlers.HandleReopenSlot)
	prefix("/timeoff", c.handlers.HandleTimeOff)
	prefix("/removetimeoff", c.handlers.HandleRemoveTimeOff)
	exact("/mytimeoff", c.handlers.HandleMyTimeOff)
	prefix("/availability", c.handlers.HandleAvailability)
	exact("/myavailability", c.handlers.HandleMyAvailability)
	prefix("/week", c.handlers.HandleWeek)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "find", Description: "🔍 Найти свободного учителя"},
		{Command: "mybookings", Description: "📅 Мои записи на занятия"},
		{Command: "newslot", Description: "➕ Создать слот (учитель)"},
		{Command: "week", Description: "🗓 Расписание на неделю (учитель)"},
		{Command: "mytimeoff", Description: "🏖 Мои отсутствия (учитель)"},
		{Command: "myavailability", Description: "🕘 Моя доступность (учитель)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
