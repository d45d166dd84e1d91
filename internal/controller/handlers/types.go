package handlers

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд.
// ID пользователя Telegram используется как holder и как owner.
type Handlers struct {
	reservationService *service.ReservationService
	slotService        *service.SlotService
	matcherService     *service.MatcherService
	guardService       *service.GuardService
	location           *time.Location
	logger             *zap.Logger
	now                func() time.Time
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	reservationService *service.ReservationService,
	slotService *service.SlotService,
	matcherService *service.MatcherService,
	guardService *service.GuardService,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	if location == nil {
		location = time.UTC
	}
	return &Handlers{
		reservationService: reservationService,
		slotService:        slotService,
		matcherService:     matcherService,
		guardService:       guardService,
		location:           location,
		logger:             logger,
		now:                time.Now,
	}
}
