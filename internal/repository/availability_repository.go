package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgAvailabilityRepository хранит еженедельные окна доступности в recurring_availabilities
type PgAvailabilityRepository struct {
	*base.Repository
}

// NewAvailabilityRepository создаёт новый репозиторий
func NewAvailabilityRepository(db base.Querier) *PgAvailabilityRepository {
	return &PgAvailabilityRepository{Repository: base.NewRepository(db)}
}

// ListByOwner получает все окна владельца
func (r *PgAvailabilityRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.RecurringAvailability, error) {
	query := `
		SELECT id, group_id, owner_id, weekday, start_minute, end_minute, created_at
		FROM recurring_availabilities
		WHERE owner_id = $1
		ORDER BY weekday, start_minute
	`

	rows, err := r.DB().Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get availability by owner: %w", err)
	}
	defer rows.Close()

	var windows []*model.RecurringAvailability
	for rows.Next() {
		var (
			window              model.RecurringAvailability
			weekday, start, end int
		)
		err := rows.Scan(
			&window.ID,
			&window.GroupID,
			&window.OwnerID,
			&weekday,
			&start,
			&end,
			&window.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}

		window.Weekday = time.Weekday(weekday)
		window.StartTime = model.WallClock(start)
		window.EndTime = model.WallClock(end)
		windows = append(windows, &window)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get availability by owner: %w", err)
	}

	return windows, nil
}

// ReplaceForOwner удаляет старые окна и вставляет новые одним батчем.
// Все новые окна получают общий group_id.
func (r *PgAvailabilityRepository) ReplaceForOwner(ctx context.Context, ownerID int64, windows []*model.RecurringAvailability) error {
	if _, err := r.DB().Exec(ctx, `DELETE FROM recurring_availabilities WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}

	if len(windows) == 0 {
		return nil
	}

	groupID := uuid.New()
	query := `
		INSERT INTO recurring_availabilities (group_id, owner_id, weekday, start_minute, end_minute)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	batch := &pgx.Batch{}
	for _, w := range windows {
		batch.Queue(query, groupID, ownerID, int(w.Weekday), int(w.StartTime), int(w.EndTime))
	}

	results := r.DB().SendBatch(ctx, batch)
	defer results.Close()

	for _, w := range windows {
		if err := results.QueryRow().Scan(&w.ID, &w.CreatedAt); err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}
		w.GroupID = groupID
		w.OwnerID = ownerID
	}

	return nil
}

// FindCoveringOwners владельцы, у которых в каждый из days есть окно,
// целиком покрывающее [start, end)
func (r *PgAvailabilityRepository) FindCoveringOwners(ctx context.Context, days []time.Weekday, start, end model.WallClock) ([]int64, error) {
	distinct := uniqueWeekdays(days)
	if len(distinct) == 0 {
		return nil, nil
	}

	query := `
		SELECT owner_id
		FROM recurring_availabilities
		WHERE weekday = ANY($1)
		  AND start_minute <= $2
		  AND end_minute >= $3
		GROUP BY owner_id
		HAVING COUNT(DISTINCT weekday) = $4
		ORDER BY owner_id
	`

	rows, err := r.DB().Query(ctx, query, distinct, int(start), int(end), len(distinct))
	if err != nil {
		return nil, fmt.Errorf("find covering owners: %w", err)
	}
	defer rows.Close()

	var owners []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		owners = append(owners, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find covering owners: %w", err)
	}

	return owners, nil
}

func uniqueWeekdays(days []time.Weekday) []int32 {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]int32, 0, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, int32(d))
	}
	return out
}
