package agent

import (
	"context"
	"sync"
)

// threadLocks serializes turns per thread. Entries are dropped when the last
// holder or waiter leaves, so idle threads cost nothing.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

// threadLock is a one-slot semaphore; holding the slot owns the thread.
type threadLock struct {
	slot chan struct{}
	refs int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: make(map[string]*threadLock)}
}

// lock waits until the caller owns threadID and returns the release func.
// It gives up with ctx.Err() when ctx ends first.
func (l *threadLocks) lock(ctx context.Context, threadID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	tl, ok := l.locks[threadID]
	if !ok {
		tl = &threadLock{slot: make(chan struct{}, 1)}
		l.locks[threadID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	select {
	case tl.slot <- struct{}{}:
	case <-ctx.Done():
		l.leave(threadID, tl)
		return nil, ctx.Err()
	}

	return func() {
		<-tl.slot
		l.leave(threadID, tl)
	}, nil
}

func (l *threadLocks) leave(threadID string, tl *threadLock) {
	l.mu.Lock()
	tl.refs--
	if tl.refs == 0 {
		delete(l.locks, threadID)
	}
	l.mu.Unlock()
}
