package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker_MutualExclusion(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "slot:1", 0)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locker.Len(), "idle keys must be dropped")
}

func TestKeyedLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "slot:1", time.Second)
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := locker.Acquire(ctx, "slot:2", 10*time.Millisecond)
	require.NoError(t, err)
	releaseB()

	assert.Equal(t, 1, locker.Len())
}

func TestKeyedLocker_TimeoutIsBusy(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "slot:1", 0)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "slot:1", 20*time.Millisecond)
	assert.ErrorIs(t, err, model.ErrBusy)
	assert.True(t, model.IsRetryable(err))

	release()
	release() // повторный вызов безопасен

	again, err := locker.Acquire(ctx, "slot:1", 20*time.Millisecond)
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, locker.Len())
}

func TestKeyedLocker_CanceledContext(t *testing.T) {
	locker := NewKeyedLocker()

	release, err := locker.Acquire(context.Background(), "owner:7", 0)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locker.Acquire(ctx, "owner:7", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, model.ErrBusy)
}
