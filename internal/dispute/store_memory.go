package dispute

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	disputes  map[id.DisputeID]*Dispute
	overrides map[id.EntryID][]*Override
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		disputes:  make(map[id.DisputeID]*Dispute),
		overrides: make(map[id.EntryID][]*Override),
	}
}

func (s *InMemoryStore) Save(_ context.Context, d *Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.disputes {
		if existing.EntryID == d.EntryID && existing.Status == StatusOpen {
			return sentinel.ErrConflict
		}
	}
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, disputeID id.DisputeID) (*Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disputes[disputeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryStore) FindOpenByEntry(_ context.Context, entryID id.EntryID) (*Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.disputes {
		if d.EntryID == entryID && d.Status == StatusOpen {
			cp := *d
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByLecture(_ context.Context, lectureID id.LectureID) ([]*Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Dispute
	for _, d := range s.disputes {
		if d.LectureID == lectureID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Resolve(_ context.Context, d *Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.disputes[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Status != StatusOpen {
		return sentinel.ErrInvalidState
	}
	cp := *d
	s.disputes[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) AppendOverride(_ context.Context, o *Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.overrides[o.EntryID] = append(s.overrides[o.EntryID], &cp)
	return nil
}

func (s *InMemoryStore) LatestOverrideByEntry(_ context.Context, entryID id.EntryID) (*Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	overrides := s.overrides[entryID]
	if len(overrides) == 0 {
		return nil, sentinel.ErrNotFound
	}
	cp := *overrides[len(overrides)-1]
	return &cp, nil
}
