package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mrz1836/structure/internal/constants"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// KeyedLocker provides per-id mutual exclusion inside one process.
// A session or workflow is owned by exactly one in-flight request.
type KeyedLocker struct {
	mu      sync.Mutex
	timeout time.Duration
	slots   map[string]*slot
}

// slot is a one-token semaphore plus a reference count so idle ids are
// dropped from the map.
type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker returns a locker whose Lock gives up after timeout.
// A non-positive timeout uses constants.DefaultLockTimeout.
func NewKeyedLocker(timeout time.Duration) *KeyedLocker {
	if timeout <= 0 {
		timeout = constants.DefaultLockTimeout
	}
	return &KeyedLocker{timeout: timeout, slots: make(map[string]*slot)}
}

// Lock blocks until id is free, ctx is done or the timeout elapses.
// The returned unlock func must be called exactly once.
func (l *KeyedLocker) Lock(ctx context.Context, id string) (func(), error) {
	s := l.acquireSlot(id)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.releaseSlot(id)
			})
		}, nil
	case <-ctx.Done():
		l.releaseSlot(id)
		return nil, ctx.Err()
	case <-timer.C:
		l.releaseSlot(id)
		return nil, fmt.Errorf("%w: %s", structerrors.ErrLockTimeout, id)
	}
}

func (l *KeyedLocker) acquireSlot(id string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	return s
}

func (l *KeyedLocker) releaseSlot(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[id]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}

// held reports how many ids currently have waiters or holders.
func (l *KeyedLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
