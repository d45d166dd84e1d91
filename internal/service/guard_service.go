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

// farFuture верхняя граница для выборки всех будущих слотов
var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// GuardService изменения отпусков и еженедельной доступности учителя.
// Все изменения одного владельца выполняются по очереди.
type GuardService struct {
	store   repository.Store
	tx      *txRunner
	metrics metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

func NewGuardService(
	store repository.Store,
	locker Locker,
	recorder metrics.Recorder,
	logger *zap.Logger,
	lockTimeout time.Duration,
) *GuardService {
	return &GuardService{
		store:   store,
		tx:      &txRunner{store: store, locker: locker, lockTimeout: lockTimeout, metrics: recorder},
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// AddTimeOff добавляет отпуск. Нельзя пересекаться с другим отпуском
// и с занятыми (reserved/completed) слотами владельца.
func (s *GuardService) AddTimeOff(ctx context.Context, ownerID int64, interval model.TimeInterval, reason string) (*model.TimeOff, error) {
	var timeOff *model.TimeOff

	err := interval.Validate()
	if err == nil {
		err = s.tx.run(ctx, repository.OwnerScope(ownerID), func(ctx context.Context, repos repository.Repositories) error {
			offs, err := repos.TimeOffs.ListByOwners(ctx, []int64{ownerID}, interval.Start, interval.End)
			if err != nil {
				return fmt.Errorf("get time offs: %w", err)
			}
			if len(offs) > 0 {
				return fmt.Errorf("add time off %s: overlaps #%d: %w", interval, offs[0].ID, model.ErrTimeOffConflict)
			}

			// FOR UPDATE: параллельная запись на эти слоты дождётся коммита
			slots, err := repos.Slots.LockByOwner(ctx, ownerID, interval.Start, interval.End)
			if err != nil {
				return fmt.Errorf("lock owner slots: %w", err)
			}
			for _, slot := range slots {
				if slot.Status.IsCommitted() {
					return fmt.Errorf("add time off %s: slot #%d is %s: %w", interval, slot.ID, slot.Status, model.ErrScheduleConflict)
				}
			}

			timeOff = &model.TimeOff{
				OwnerID:  ownerID,
				Interval: interval,
				Reason:   reason,
			}
			if err := repos.TimeOffs.Create(ctx, timeOff); err != nil {
				return fmt.Errorf("create time off: %w", err)
			}
			return nil
		})
	}

	s.metrics.RecordGuardDecision("add_time_off", err)
	if err != nil {
		s.logger.Debug("Time off rejected",
			zap.Int64("owner_id", ownerID),
			zap.Stringer("interval", interval),
			zap.String("reason", model.Code(err)),
		)
		return nil, err
	}

	s.logger.Info("Time off added",
		zap.Int64("time_off_id", timeOff.ID),
		zap.Int64("owner_id", ownerID),
		zap.Stringer("interval", interval),
	)

	return timeOff, nil
}

// RemoveTimeOff удаляет отпуск владельца
func (s *GuardService) RemoveTimeOff(ctx context.Context, id, ownerID int64) error {
	err := s.tx.run(ctx, repository.OwnerScope(ownerID), func(ctx context.Context, repos repository.Repositories) error {
		timeOff, err := repos.TimeOffs.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get time off: %w", err)
		}
		if timeOff == nil {
			return fmt.Errorf("remove time off %d: %w", id, model.ErrNotFound)
		}
		if timeOff.OwnerID != ownerID {
			return fmt.Errorf("remove time off %d: %w", id, model.ErrForbidden)
		}
		return repos.TimeOffs.Delete(ctx, id)
	})

	s.metrics.RecordGuardDecision("remove_time_off", err)
	if err != nil {
		return err
	}

	s.logger.Info("Time off removed", zap.Int64("time_off_id", id), zap.Int64("owner_id", ownerID))
	return nil
}

// ReplaceAvailability заменяет всё еженедельное расписание владельца.
// Запрещено, пока у владельца есть будущие записи.
func (s *GuardService) ReplaceAvailability(ctx context.Context, ownerID int64, windows []*model.RecurringAvailability) ([]*model.RecurringAvailability, error) {
	var err error
	for _, w := range windows {
		if err = w.Validate(); err != nil {
			break
		}
	}

	if err == nil {
		err = s.tx.run(ctx, repository.OwnerScope(ownerID), func(ctx context.Context, repos repository.Repositories) error {
			now := s.now()
			if _, err := repos.Slots.LockByOwner(ctx, ownerID, now, farFuture); err != nil {
				return fmt.Errorf("lock owner slots: %w", err)
			}

			has, err := repos.Slots.HasReservedStartingAfter(ctx, ownerID, now)
			if err != nil {
				return fmt.Errorf("check future bookings: %w", err)
			}
			if has {
				return fmt.Errorf("replace availability of %d: %w", ownerID, model.ErrHasFutureBookings)
			}

			if err := repos.Availability.ReplaceForOwner(ctx, ownerID, windows); err != nil {
				return fmt.Errorf("replace availability: %w", err)
			}
			return nil
		})
	}

	s.metrics.RecordGuardDecision("replace_availability", err)
	if err != nil {
		s.logger.Debug("Availability replace rejected",
			zap.Int64("owner_id", ownerID),
			zap.String("reason", model.Code(err)),
		)
		return nil, err
	}

	s.logger.Info("Availability replaced",
		zap.Int64("owner_id", ownerID),
		zap.Int("windows", len(windows)),
	)

	return windows, nil
}

// ListTimeOffs отпуска владельца, пересекающие [from, to)
func (s *GuardService) ListTimeOffs(ctx context.Context, ownerID int64, from, to time.Time) ([]*model.TimeOff, error) {
	offs, err := s.store.Repositories().TimeOffs.ListByOwners(ctx, []int64{ownerID}, from, to)
	if err != nil {
		return nil, fmt.Errorf("list time offs: %w", err)
	}
	return offs, nil
}

// GetAvailability текущее еженедельное расписание владельца
func (s *GuardService) GetAvailability(ctx context.Context, ownerID int64) ([]*model.RecurringAvailability, error) {
	windows, err := s.store.Repositories().Availability.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return windows, nil
}
