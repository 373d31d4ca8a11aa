package commands

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
)

// recordLocks serializes work per meeting record. Entries are dropped once
// no goroutine holds or waits on them.
type recordLocks struct {
	mu    sync.Mutex
	locks map[domain.MessageID]*recordLock
}

type recordLock struct {
	sem  chan struct{}
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[domain.MessageID]*recordLock)}
}

// acquire blocks until the lock for id is held or ctx is done.
func (l *recordLocks) acquire(ctx context.Context, id domain.MessageID) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &recordLock{sem: make(chan struct{}, 1)}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(id, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			l.unref(id, lock)
		})
	}, nil
}

func (l *recordLocks) unref(id domain.MessageID, lock *recordLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *recordLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
