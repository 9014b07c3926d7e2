// Package lock provides the mutual exclusion used to keep ingestion cycles
// from overlapping.
package lock

import (
	"context"
	"sync"
)

// Locker is a non-blocking lock. ok is false when someone else holds it.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(context.Context) error, ok bool, err error)
}

// Local is an in-process Locker for single-instance deployments.
type Local struct {
	mu sync.Mutex
}

// NewLocal creates an in-process lock.
func NewLocal() *Local {
	return &Local{}
}

// TryLock implements Locker.
func (l *Local) TryLock(context.Context) (func(context.Context) error, bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, true, nil
}
