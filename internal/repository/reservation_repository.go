package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `id, slot_id, holder_id, status, created_at, updated_at`

type PgReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(db base.Querier) *PgReservationRepository {
	return &PgReservationRepository{Repository: base.NewRepository(db)}
}

// Create создаёт новую запись на слот
func (r *PgReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if reservation.Status == "" {
		reservation.Status = model.ReservationStatusActive
	}

	query := `
		INSERT INTO reservations (slot_id, holder_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		reservation.SlotID,
		reservation.HolderID,
		string(reservation.Status),
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create reservation: %w", base.TranslateError(err))
	}

	return nil
}

// GetByID получает запись по ID
func (r *PgReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return reservation, nil
}

// FindActive активная запись ученика на слот
func (r *PgReservationRepository) FindActive(ctx context.Context, slotID, holderID int64) (*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE slot_id = $1 AND holder_id = $2 AND status = 'active'
	`

	reservation, err := scanReservation(r.DB().QueryRow(ctx, query, slotID, holderID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active reservation: %w", err)
	}

	return reservation, nil
}

// CountActive количество активных записей на слот
func (r *PgReservationRepository) CountActive(ctx context.Context, slotID int64) (int, error) {
	var count int
	err := r.DB().QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE slot_id = $1 AND status = 'active'`,
		slotID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active reservations: %w", err)
	}

	return count, nil
}

// UpdateStatus обновляет статус записи
func (r *PgReservationRepository) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	query := `
		UPDATE reservations
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update reservation status: %w", model.ErrNotFound)
	}

	return nil
}

// CancelAllActive отменяет все активные записи слота
func (r *PgReservationRepository) CancelAllActive(ctx context.Context, slotID int64) (int, error) {
	query := `
		UPDATE reservations
		SET status = 'canceled', updated_at = NOW()
		WHERE slot_id = $1 AND status = 'active'
	`

	affected, err := r.ExecAffected(ctx, query, slotID)
	if err != nil {
		return 0, fmt.Errorf("cancel slot reservations: %w", err)
	}

	return int(affected), nil
}

// ListByHolder записи ученика вместе со слотами
func (r *PgReservationRepository) ListByHolder(ctx context.Context, holderID int64) ([]*model.Reservation, error) {
	query := `
		SELECT r.id, r.slot_id, r.holder_id, r.status, r.created_at, r.updated_at,
		       s.id, s.owner_id, s.start_time, s.end_time, s.status, s.capacity, s.created_at
		FROM reservations r
		JOIN schedule_slots s ON s.id = r.slot_id
		WHERE r.holder_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := r.DB().Query(ctx, query, holderID)
	if err != nil {
		return nil, fmt.Errorf("list reservations by holder: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		var (
			res        model.Reservation
			slot       model.ScheduleSlot
			resStatus  string
			slotStatus string
		)
		err := rows.Scan(
			&res.ID,
			&res.SlotID,
			&res.HolderID,
			&resStatus,
			&res.CreatedAt,
			&res.UpdatedAt,
			&slot.ID,
			&slot.OwnerID,
			&slot.Interval.Start,
			&slot.Interval.End,
			&slotStatus,
			&slot.Capacity,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}

		res.Status = model.ReservationStatus(resStatus)
		slot.Status = model.SlotStatus(slotStatus)
		slot.Interval.Start = slot.Interval.Start.UTC()
		slot.Interval.End = slot.Interval.End.UTC()
		res.Slot = &slot

		reservations = append(reservations, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations by holder: %w", err)
	}

	return reservations, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	var status string
	err := row.Scan(
		&res.ID,
		&res.SlotID,
		&res.HolderID,
		&status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.Status = model.ReservationStatus(status)
	return &res, nil
}
