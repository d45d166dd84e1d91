package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/metrics"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
)

// Locker взаимное исключение по ключу (lock.KeyedLocker)
type Locker interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error)
}

// txRunner захватывает ключ в процессе и открывает транзакцию с той же областью блокировки.
// Ключ держится до конца транзакции.
type txRunner struct {
	store       repository.Store
	locker      Locker
	lockTimeout time.Duration
	metrics     metrics.Recorder
}

func (r *txRunner) run(ctx context.Context, scope repository.LockScope, fn repository.TxFunc) error {
	started := time.Now()
	release, err := r.locker.Acquire(ctx, scope.Key(), r.lockTimeout)
	r.metrics.RecordLockWait(string(scope.Kind), time.Since(started))
	if err != nil {
		return err
	}
	defer release()

	return r.store.InTx(ctx, scope, fn)
}
