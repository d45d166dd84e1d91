// Package lock предоставляет взаимное исключение по ключу с ограниченным ожиданием.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"golang.org/x/sync/semaphore"
)

// KeyedLocker держит по одному семафору на ключ (например "slot:42").
// Записи удаляются, когда ключ никто не держит и не ждёт.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewKeyedLocker создаёт пустой набор блокировок
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*entry)}
}

// Acquire захватывает ключ, ожидая не дольше timeout (0 = без ограничения).
// По истечении таймаута возвращает model.ErrBusy, при отмене ctx - ctx.Err().
// Возвращённую функцию release можно вызывать повторно.
func (l *KeyedLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	e := l.ref(key)

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		l.unref(key)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: lock %s not acquired within %s", model.ErrBusy, key, timeout)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(key)
		})
	}, nil
}

// Len количество ключей, которые сейчас удерживаются или ожидаются
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *KeyedLocker) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
