package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const slotColumns = `id, owner_id, start_time, end_time, status, capacity, created_at`

type PgSlotRepository struct {
	*base.Repository
}

func NewSlotRepository(db base.Querier) *PgSlotRepository {
	return &PgSlotRepository{Repository: base.NewRepository(db)}
}

// Create создаёт новый слот
func (r *PgSlotRepository) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	if slot.Capacity <= 0 {
		slot.Capacity = model.DefaultSlotCapacity
	}

	query := `
		INSERT INTO schedule_slots (owner_id, start_time, end_time, status, capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		slot.OwnerID,
		slot.Interval.Start,
		slot.Interval.End,
		string(slot.Status),
		slot.Capacity,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *PgSlotRepository) GetByID(ctx context.Context, id int64) (*model.ScheduleSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE id = $1`

	slot, err := scanSlot(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// UpdateStatus обновляет статус слота
func (r *PgSlotRepository) UpdateStatus(ctx context.Context, id int64, status model.SlotStatus) error {
	affected, err := r.ExecAffected(ctx, `UPDATE schedule_slots SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update slot status: %w", model.ErrNotFound)
	}

	return nil
}

// ListByOwner слоты владельца, пересекающие [from, to)
func (r *PgSlotRepository) ListByOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE owner_id = $1
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`

	return r.list(ctx, "list slots by owner", query, ownerID, from, to)
}

// LockByOwner как ListByOwner, но с FOR UPDATE
func (r *PgSlotRepository) LockByOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE owner_id = $1
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY id
		FOR UPDATE
	`

	slots, err := r.list(ctx, "lock slots by owner", query, ownerID, from, to)
	if err != nil {
		return nil, base.TranslateError(err)
	}
	return slots, nil
}

// ListCommittedByOwners занятые слоты нескольких владельцев
func (r *PgSlotRepository) ListCommittedByOwners(ctx context.Context, ownerIDs []int64, from, to time.Time) ([]*model.ScheduleSlot, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE owner_id = ANY($1)
		  AND status IN ('reserved', 'completed')
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY owner_id, start_time
	`

	return r.list(ctx, "list committed slots", query, ownerIDs, from, to)
}

// HasReservedStartingAfter есть ли будущие записи у владельца
func (r *PgSlotRepository) HasReservedStartingAfter(ctx context.Context, ownerID int64, after time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM schedule_slots
			WHERE owner_id = $1 AND status = 'reserved' AND start_time > $2
		)
	`

	var exists bool
	err := r.DB().QueryRow(ctx, query, ownerID, after).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reserved slots: %w", err)
	}

	return exists, nil
}

// ListReservedEndedBy reserved слоты, которые уже закончились
func (r *PgSlotRepository) ListReservedEndedBy(ctx context.Context, before time.Time) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE status = 'reserved' AND end_time <= $1
		ORDER BY end_time
	`

	return r.list(ctx, "list finished slots", query, before)
}

func (r *PgSlotRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.ScheduleSlot, error) {
	rows, err := r.DB().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

func scanSlot(row pgx.Row) (*model.ScheduleSlot, error) {
	var slot model.ScheduleSlot
	var status string
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.Interval.Start,
		&slot.Interval.End,
		&status,
		&slot.Capacity,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.Status = model.SlotStatus(status)
	slot.Interval.Start = slot.Interval.Start.UTC()
	slot.Interval.End = slot.Interval.End.UTC()

	return &slot, nil
}
