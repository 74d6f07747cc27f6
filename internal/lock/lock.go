// Package lock provides per-key mutual exclusion for recompute pipelines.
// Acquisition never waits: a held key fails immediately with
// apperrors.ErrConcurrentRecompute and the caller decides whether to retry.
package lock

import (
	"context"
	"sync"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
)

// Locker acquires exclusive, non-blocking locks by key.
type Locker interface {
	TryLock(ctx context.Context, key string) (Release, error)
}

// Release gives a lock back. Calling it more than once is harmless.
type Release func(ctx context.Context) error

// UserKey is the lock key guarding every write for a user.
func UserKey(userID string) string {
	return "recompute:" + userID
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

// TryLock acquires key or returns ErrConcurrentRecompute if it is held.
func (l *LocalLocker) TryLock(_ context.Context, key string) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, apperrors.ErrConcurrentRecompute
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
