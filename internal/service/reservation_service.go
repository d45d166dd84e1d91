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

// ReservationService запись учеников на слоты.
// На один слот в каждый момент работает не больше одной операции.
type ReservationService struct {
	store   repository.Store
	tx      *txRunner
	metrics metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

func NewReservationService(
	store repository.Store,
	locker Locker,
	recorder metrics.Recorder,
	logger *zap.Logger,
	lockTimeout time.Duration,
) *ReservationService {
	return &ReservationService{
		store:   store,
		tx:      &txRunner{store: store, locker: locker, lockTimeout: lockTimeout, metrics: recorder},
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Book записывает ученика на слот.
// Проверки по порядку: слот доступен, у ученика нет активной записи, есть свободное место.
func (s *ReservationService) Book(ctx context.Context, slotID, holderID int64) (*model.Reservation, error) {
	var reservation *model.Reservation

	err := s.tx.run(ctx, repository.SlotScope(slotID), func(ctx context.Context, repos repository.Repositories) error {
		slot, err := repos.Slots.GetByID(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil || !slot.IsBookable(s.now()) {
			return fmt.Errorf("book slot %d: %w", slotID, model.ErrSlotUnavailable)
		}

		// у владельца отпуск на это время
		offs, err := repos.TimeOffs.ListByOwners(ctx, []int64{slot.OwnerID}, slot.Interval.Start, slot.Interval.End)
		if err != nil {
			return fmt.Errorf("get time offs: %w", err)
		}
		if len(offs) > 0 {
			return fmt.Errorf("book slot %d: owner is off: %w", slotID, model.ErrSlotUnavailable)
		}

		existing, err := repos.Reservations.FindActive(ctx, slotID, holderID)
		if err != nil {
			return fmt.Errorf("find active reservation: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("book slot %d: %w", slotID, model.ErrAlreadyReserved)
		}

		active, err := repos.Reservations.CountActive(ctx, slotID)
		if err != nil {
			return fmt.Errorf("count active reservations: %w", err)
		}
		if active >= slot.EffectiveCapacity() {
			return fmt.Errorf("book slot %d: %w", slotID, model.ErrSlotFull)
		}

		reservation = &model.Reservation{
			SlotID:   slotID,
			HolderID: holderID,
			Status:   model.ReservationStatusActive,
		}
		if err := repos.Reservations.Create(ctx, reservation); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		if slot.Status == model.SlotStatusOpen {
			if err := repos.Slots.UpdateStatus(ctx, slotID, model.SlotStatusReserved); err != nil {
				return fmt.Errorf("reserve slot: %w", err)
			}
			slot.Status = model.SlotStatusReserved
		}

		reservation.Slot = slot
		return nil
	})

	s.metrics.RecordBooking(err)
	if err != nil {
		s.logger.Debug("Booking rejected",
			zap.Int64("slot_id", slotID),
			zap.Int64("holder_id", holderID),
			zap.String("reason", model.Code(err)),
		)
		return nil, err
	}

	s.logger.Info("Slot booked",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("slot_id", slotID),
		zap.Int64("holder_id", holderID),
	)

	return reservation, nil
}

// Cancel отменяет запись. Слот при этом не переоткрывается.
func (s *ReservationService) Cancel(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	return s.cancel(ctx, reservationID, 0)
}

// CancelForHolder как Cancel, но только свою запись
func (s *ReservationService) CancelForHolder(ctx context.Context, reservationID, holderID int64) (*model.Reservation, error) {
	return s.cancel(ctx, reservationID, holderID)
}

func (s *ReservationService) cancel(ctx context.Context, reservationID, holderID int64) (*model.Reservation, error) {
	// slot_id нужен до блокировки, внутри транзакции запись перечитываем
	found, err := s.store.Repositories().Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if found == nil {
		err = fmt.Errorf("cancel reservation %d: %w", reservationID, model.ErrNotFound)
		s.metrics.RecordCancellation(err)
		return nil, err
	}

	var reservation *model.Reservation
	err = s.tx.run(ctx, repository.SlotScope(found.SlotID), func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		if current == nil {
			return fmt.Errorf("cancel reservation %d: %w", reservationID, model.ErrNotFound)
		}
		if holderID != 0 && current.HolderID != holderID {
			return fmt.Errorf("cancel reservation %d: %w", reservationID, model.ErrForbidden)
		}
		if !current.IsActive() {
			return fmt.Errorf("cancel reservation %d: %w", reservationID, model.ErrAlreadyCanceled)
		}

		if err := repos.Reservations.UpdateStatus(ctx, reservationID, model.ReservationStatusCanceled); err != nil {
			return fmt.Errorf("cancel reservation: %w", err)
		}

		current.Status = model.ReservationStatusCanceled
		reservation = current
		return nil
	})

	s.metrics.RecordCancellation(err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation canceled",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("slot_id", reservation.SlotID),
		zap.Int64("holder_id", reservation.HolderID),
	)

	return reservation, nil
}

// CountActive количество активных записей на слот
func (s *ReservationService) CountActive(ctx context.Context, slotID int64) (int, error) {
	count, err := s.store.Repositories().Reservations.CountActive(ctx, slotID)
	if err != nil {
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return count, nil
}

// ListHolderReservations записи ученика, новые первыми
func (s *ReservationService) ListHolderReservations(ctx context.Context, holderID int64) ([]*model.Reservation, error) {
	reservations, err := s.store.Repositories().Reservations.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}
