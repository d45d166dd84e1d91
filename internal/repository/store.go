package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore хранилище поверх пула Postgres
type PgStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPgStore создаёт хранилище. lockTimeout ограничивает ожидание строковых
// и advisory блокировок внутри транзакции (0 = ждать без ограничения).
func NewPgStore(pool *pgxpool.Pool, lockTimeout time.Duration) *PgStore {
	return &PgStore{pool: pool, lockTimeout: lockTimeout}
}

func (s *PgStore) Repositories() Repositories {
	return newPgRepositories(s.pool)
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InTx открывает транзакцию, захватывает блокировку scope и выполняет fn.
// Для слота блокируется его строка, для владельца - advisory lock по ключу scope.
func (s *PgStore) InTx(ctx context.Context, scope LockScope, fn TxFunc) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		// после Commit вернёт ErrTxClosed
		_ = tx.Rollback(context.Background())
	}()

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err := lockScope(ctx, tx, scope); err != nil {
		return err
	}

	if err := fn(ctx, newPgRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", base.TranslateError(err))
	}

	return nil
}

func lockScope(ctx context.Context, tx pgx.Tx, scope LockScope) error {
	switch scope.Kind {
	case LockSlot:
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM schedule_slots WHERE id = $1 FOR UPDATE`, scope.ID).Scan(&id)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock %s: %w", scope.Key(), base.TranslateError(err))
		}
	case LockOwner:
		_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, scope.Key())
		if err != nil {
			return fmt.Errorf("lock %s: %w", scope.Key(), base.TranslateError(err))
		}
	default:
		return fmt.Errorf("unknown lock kind %q", scope.Kind)
	}
	return nil
}

func newPgRepositories(db base.Querier) Repositories {
	return Repositories{
		Slots:        NewSlotRepository(db),
		Reservations: NewReservationRepository(db),
		Availability: NewAvailabilityRepository(db),
		TimeOffs:     NewTimeOffRepository(db),
	}
}

var (
	_ Store                  = (*PgStore)(nil)
	_ SlotRepository         = (*PgSlotRepository)(nil)
	_ ReservationRepository  = (*PgReservationRepository)(nil)
	_ AvailabilityRepository = (*PgAvailabilityRepository)(nil)
	_ TimeOffRepository      = (*PgTimeOffRepository)(nil)
)
