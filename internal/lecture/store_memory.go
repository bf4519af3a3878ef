package lecture

import (
	"context"
	"sync"
	"time"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemoryStore is the test and single-node implementation of Store.
type InMemoryStore struct {
	mu       sync.RWMutex
	lectures map[id.LectureID]Lecture
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{lectures: make(map[id.LectureID]Lecture)}
}

func (s *InMemoryStore) Save(_ context.Context, lec *Lecture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lectures[lec.ID] = *lec
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, lectureID id.LectureID) (*Lecture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lec, ok := s.lectures[lectureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := lec
	return &copied, nil
}

func (s *InMemoryStore) ListByClass(_ context.Context, classID id.ClassID) ([]*Lecture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Lecture
	for _, lec := range s.lectures {
		if lec.ClassID == classID {
			copied := lec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) AdvanceStatus(_ context.Context, lectureID id.LectureID, expected, next Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lec, ok := s.lectures[lectureID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if lec.Status != expected {
		return sentinel.ErrStatusChanged
	}
	if !expected.CanAdvanceTo(next) {
		return sentinel.ErrInvalidState
	}
	lec.Status = next
	lec.UpdatedAt = time.Now()
	s.lectures[lectureID] = lec
	return nil
}
