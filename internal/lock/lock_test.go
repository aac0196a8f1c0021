package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "car:1")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxInside)
	require.Zero(t, l.size(), "entries are dropped after release")
}

func TestLocal_TimeoutWhileHeld(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "event:1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "event:1")
	require.ErrorIs(t, err, ErrTimeout)
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	u1, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer u1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	u2, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	u2()
}

func TestLocal_UnlockTwiceIsSafe(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}

type failingLocker struct {
	Locker
	failOn string
}

func (f failingLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	if key == f.failOn {
		return nil, errors.New("nope")
	}
	return f.Locker.Lock(ctx, key)
}

func TestAcquire_ReleasesOnFailure(t *testing.T) {
	local := NewLocal()
	_, err := Acquire(context.Background(), failingLocker{Locker: local, failOn: "event:1"}, CarKey("1"), EventKey("1"))
	require.Error(t, err)
	require.Zero(t, local.size(), "car lock must be released")

	unlock, err := Acquire(context.Background(), local, CarKey("1"), EventKey("1"))
	require.NoError(t, err)
	require.Equal(t, 2, local.size())
	unlock()
	require.Zero(t, local.size())
}
