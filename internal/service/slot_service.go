package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/metrics"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

// SlotService жизненный цикл слотов учителя
type SlotService struct {
	store  repository.Store
	tx     *txRunner
	logger *zap.Logger
	now    func() time.Time
}

func NewSlotService(
	store repository.Store,
	locker Locker,
	recorder metrics.Recorder,
	logger *zap.Logger,
	lockTimeout time.Duration,
) *SlotService {
	return &SlotService{
		store:  store,
		tx:     &txRunner{store: store, locker: locker, lockTimeout: lockTimeout, metrics: recorder},
		logger: logger,
		now:    time.Now,
	}
}

// CreateSlot создаёт открытый слот. Слот не может попадать в отпуск
// и пересекаться с другими неотменёнными слотами владельца.
func (s *SlotService) CreateSlot(ctx context.Context, ownerID int64, interval model.TimeInterval) (*model.ScheduleSlot, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}
	if !interval.Start.After(s.now()) {
		return nil, fmt.Errorf("%w: slot starts in the past", model.ErrInvalidInterval)
	}

	var slot *model.ScheduleSlot
	err := s.tx.run(ctx, repository.OwnerScope(ownerID), func(ctx context.Context, repos repository.Repositories) error {
		offs, err := repos.TimeOffs.ListByOwners(ctx, []int64{ownerID}, interval.Start, interval.End)
		if err != nil {
			return fmt.Errorf("get time offs: %w", err)
		}
		if len(offs) > 0 {
			return fmt.Errorf("create slot %s: %w", interval, model.ErrTimeOffConflict)
		}

		existing, err := repos.Slots.LockByOwner(ctx, ownerID, interval.Start, interval.End)
		if err != nil {
			return fmt.Errorf("lock owner slots: %w", err)
		}
		for _, other := range existing {
			if other.Status != model.SlotStatusCancelled {
				return fmt.Errorf("create slot %s: overlaps slot #%d: %w", interval, other.ID, model.ErrScheduleConflict)
			}
		}

		slot = &model.ScheduleSlot{
			OwnerID:  ownerID,
			Interval: interval,
			Status:   model.SlotStatusOpen,
			Capacity: model.DefaultSlotCapacity,
		}
		if err := repos.Slots.Create(ctx, slot); err != nil {
			return fmt.Errorf("create slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("owner_id", ownerID),
		zap.Stringer("interval", interval),
	)

	return slot, nil
}

// CompleteSlot отмечает занятие проведённым
func (s *SlotService) CompleteSlot(ctx context.Context, slotID, ownerID int64) (*model.ScheduleSlot, error) {
	return s.transition(ctx, slotID, ownerID, model.SlotStatusCompleted, nil)
}

// CancelSlot отменяет слот вместе со всеми активными записями.
// Возвращает количество отменённых записей.
func (s *SlotService) CancelSlot(ctx context.Context, slotID, ownerID int64) (int, error) {
	var canceled int
	_, err := s.transition(ctx, slotID, ownerID, model.SlotStatusCancelled, func(ctx context.Context, repos repository.Repositories, _ *model.ScheduleSlot) error {
		n, err := repos.Reservations.CancelAllActive(ctx, slotID)
		if err != nil {
			return fmt.Errorf("cancel slot reservations: %w", err)
		}
		canceled = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return canceled, nil
}

// ReopenSlot возвращает reserved слот в open, если на нём не осталось активных записей
// и он ещё не начался
func (s *SlotService) ReopenSlot(ctx context.Context, slotID, ownerID int64) (*model.ScheduleSlot, error) {
	return s.transition(ctx, slotID, ownerID, model.SlotStatusOpen, func(ctx context.Context, repos repository.Repositories, slot *model.ScheduleSlot) error {
		if !s.now().Before(slot.Interval.Start) {
			return fmt.Errorf("reopen slot %d: already started: %w", slotID, model.ErrInvalidTransition)
		}
		active, err := repos.Reservations.CountActive(ctx, slotID)
		if err != nil {
			return fmt.Errorf("count active reservations: %w", err)
		}
		if active > 0 {
			return fmt.Errorf("reopen slot %d: %d active reservations: %w", slotID, active, model.ErrInvalidTransition)
		}
		return nil
	})
}

type transitionCheck func(ctx context.Context, repos repository.Repositories, slot *model.ScheduleSlot) error

// transition меняет статус слота под блокировкой слота. ownerID 0 - без проверки владельца.
func (s *SlotService) transition(ctx context.Context, slotID, ownerID int64, next model.SlotStatus, check transitionCheck) (*model.ScheduleSlot, error) {
	var slot *model.ScheduleSlot
	err := s.tx.run(ctx, repository.SlotScope(slotID), func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Slots.GetByID(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if current == nil {
			return fmt.Errorf("slot %d: %w", slotID, model.ErrNotFound)
		}
		if ownerID != 0 && current.OwnerID != ownerID {
			return fmt.Errorf("slot %d: %w", slotID, model.ErrForbidden)
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("slot %d %s -> %s: %w", slotID, current.Status, next, model.ErrInvalidTransition)
		}

		if check != nil {
			if err := check(ctx, repos, current); err != nil {
				return err
			}
		}

		if err := repos.Slots.UpdateStatus(ctx, slotID, next); err != nil {
			return fmt.Errorf("update slot status: %w", err)
		}
		current.Status = next
		slot = current
		return nil
	})
	if err != nil {
		s.logger.Debug("Slot transition rejected",
			zap.Int64("slot_id", slotID),
			zap.String("to", string(next)),
			zap.String("reason", model.Code(err)),
		)
		return nil, err
	}

	s.logger.Info("Slot status changed",
		zap.Int64("slot_id", slotID),
		zap.String("status", string(next)),
	)

	return slot, nil
}

// CompleteFinishedSlots переводит закончившиеся reserved слоты в completed
func (s *SlotService) CompleteFinishedSlots(ctx context.Context) (int, error) {
	finished, err := s.store.Repositories().Slots.ListReservedEndedBy(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list finished slots: %w", err)
	}

	completed := 0
	for _, slot := range finished {
		_, err := s.transition(ctx, slot.ID, 0, model.SlotStatusCompleted, nil)
		if err != nil {
			// слот могли отменить между выборкой и блокировкой
			if model.KindOf(err) == model.KindConflict {
				continue
			}
			return completed, err
		}
		completed++
	}

	return completed, nil
}

// GetSlot слот по ID
func (s *SlotService) GetSlot(ctx context.Context, slotID int64) (*model.ScheduleSlot, error) {
	slot, err := s.store.Repositories().Slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("slot %d: %w", slotID, model.ErrNotFound)
	}
	return slot, nil
}

// ListOwnerSlots слоты владельца, пересекающие [from, to)
func (s *SlotService) ListOwnerSlots(ctx context.Context, ownerID int64, from, to time.Time) ([]*model.ScheduleSlot, error) {
	slots, err := s.store.Repositories().Slots.ListByOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list owner slots: %w", err)
	}
	return slots, nil
}
