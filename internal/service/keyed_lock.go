package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/limbo/discipline/pkg/entity"
)

type lockKey struct {
	habitID uuid.UUID
	date    entity.DateKey
}

// keyedLock serializes mutations of one (habit, date key). Waiting respects ctx.
type keyedLock struct {
	mu   sync.Mutex
	held map[lockKey]chan struct{}
}

func newKeyedLock() *keyedLock {
	return &keyedLock{held: make(map[lockKey]chan struct{})}
}

// Lock blocks until key is free and returns its release func. Calling release
// more than once is safe.
func (l *keyedLock) Lock(ctx context.Context, key lockKey) (func(), error) {
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			ch = make(chan struct{})
			l.held[key] = ch
			l.mu.Unlock()
			var released sync.Once
			return func() {
				released.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(ch)
				})
			}, nil
		}
		l.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
