package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const timeOffColumns = `id, owner_id, start_time, end_time, reason, created_at`

type PgTimeOffRepository struct {
	*base.Repository
}

func NewTimeOffRepository(db base.Querier) *PgTimeOffRepository {
	return &PgTimeOffRepository{Repository: base.NewRepository(db)}
}

// Create сохраняет период недоступности.
// Пересечение с другим периодом того же владельца отсекает exclusion constraint.
func (r *PgTimeOffRepository) Create(ctx context.Context, timeOff *model.TimeOff) error {
	query := `
		INSERT INTO time_offs (owner_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		timeOff.OwnerID,
		timeOff.Interval.Start,
		timeOff.Interval.End,
		timeOff.Reason,
	).Scan(&timeOff.ID, &timeOff.CreatedAt)

	if err != nil {
		return fmt.Errorf("create time off: %w", base.TranslateError(err))
	}

	return nil
}

// GetByID получает период по ID
func (r *PgTimeOffRepository) GetByID(ctx context.Context, id int64) (*model.TimeOff, error) {
	query := `SELECT ` + timeOffColumns + ` FROM time_offs WHERE id = $1`

	timeOff, err := scanTimeOff(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get time off by id: %w", err)
	}

	return timeOff, nil
}

// Delete удаляет период
func (r *PgTimeOffRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM time_offs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete time off: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete time off: %w", model.ErrNotFound)
	}

	return nil
}

// ListByOwners периоды владельцев, пересекающие [from, to)
func (r *PgTimeOffRepository) ListByOwners(ctx context.Context, ownerIDs []int64, from, to time.Time) ([]*model.TimeOff, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + timeOffColumns + `
		FROM time_offs
		WHERE owner_id = ANY($1)
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY owner_id, start_time
	`

	rows, err := r.DB().Query(ctx, query, ownerIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("list time offs: %w", err)
	}
	defer rows.Close()

	var timeOffs []*model.TimeOff
	for rows.Next() {
		timeOff, err := scanTimeOff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time off: %w", err)
		}
		timeOffs = append(timeOffs, timeOff)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list time offs: %w", err)
	}

	return timeOffs, nil
}

func scanTimeOff(row pgx.Row) (*model.TimeOff, error) {
	var t model.TimeOff
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Interval.Start,
		&t.Interval.End,
		&t.Reason,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Interval.Start = t.Interval.Start.UTC()
	t.Interval.End = t.Interval.End.UTC()
	return &t, nil
}
