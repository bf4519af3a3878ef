package lock

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemoryLocker serializes generation runs within a single process. Used in
// tests and single-node deployments without Redis.
type InMemoryLocker struct {
	mu   sync.Mutex
	held map[id.LectureID]bool
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[id.LectureID]bool)}
}

func (l *InMemoryLocker) Acquire(_ context.Context, lectureID id.LectureID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[lectureID] {
		return nil, sentinel.ErrLockHeld
	}
	l.held[lectureID] = true
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, lectureID)
	}
	return release, nil
}
