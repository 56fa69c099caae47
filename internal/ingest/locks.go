package ingest

import (
	"context"
	"sync"
)

// userLocks serializes write operations per user so two overlapping imports
// cannot both miss each other's duplicates.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]chan struct{})}
}

// acquire blocks until the user's lock is free or ctx is done. The returned
// function releases the lock.
func (l *userLocks) acquire(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[userID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[userID] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
