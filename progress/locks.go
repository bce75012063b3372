package progress

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// userLocks serializes stats writes per user within this process, so
// concurrent submissions for one learner queue instead of racing on the
// version guard. Writers in other processes are still handled by the guard.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// acquire blocks until userID's lock is held or ctx is done. The returned
// release must be called exactly once.
func (l *userLocks) acquire(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{sem: semaphore.NewWeighted(1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	if err := ul.sem.Acquire(ctx, 1); err != nil {
		l.drop(userID, ul)
		return nil, err
	}
	return func() {
		ul.sem.Release(1)
		l.drop(userID, ul)
	}, nil
}

func (l *userLocks) drop(userID string, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

// held reports how many users currently have a lock entry.
func (l *userLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
