// Package lock provides short-lived advisory locks keyed by string.
//
// Registration takes one lock per car and one per event so that a car cannot
// be deleted, or an event removed, halfway through linking the two.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrTimeout is returned when a lock could not be acquired in time.
var ErrTimeout = errors.New("lock: acquire timed out")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker acquires exclusive locks.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// CarKey is the lock key guarding a car's references.
func CarKey(carID string) string { return "car:" + carID }

// EventKey is the lock key guarding an event's references.
func EventKey(eventID string) string { return "event:" + eventID }

// Acquire locks keys in the order given and returns one Unlock for all of
// them. On failure every lock already taken is released.
func Acquire(ctx context.Context, l Locker, keys ...string) (Unlock, error) {
	held := make([]Unlock, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, key := range keys {
		u, err := l.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, u)
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

// Local is an in-process Locker. Entries are dropped once nobody holds or
// waits on them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1): holding the token means holding the lock
	refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Lock implements Locker. It blocks until the key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// size reports how many keys are tracked.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
