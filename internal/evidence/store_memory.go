package evidence

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
)

// InMemoryStore is the test and single-node implementation of Store.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[id.LectureID][]Item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[id.LectureID][]Item)}
}

func (s *InMemoryStore) Append(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.LectureID] = append(s.items[item.LectureID], *item)
	return nil
}

func (s *InMemoryStore) ListByLecture(_ context.Context, lectureID id.LectureID) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.items[lectureID]
	out := make([]*Item, 0, len(stored))
	for i := range stored {
		copied := stored[i]
		out = append(out, &copied)
	}
	return out, nil
}
