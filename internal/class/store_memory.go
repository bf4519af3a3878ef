package class

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	classes map[id.ClassID]*Class
	byCode  map[string]id.ClassID
	slots   map[id.SlotID]*Slot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		classes: make(map[id.ClassID]*Class),
		byCode:  make(map[string]id.ClassID),
		slots:   make(map[id.SlotID]*Slot),
	}
}

func (s *InMemoryStore) Save(_ context.Context, c *Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byCode[c.Code]; ok && existing != c.ID {
		return sentinel.ErrConflict
	}
	cp := *c
	s.classes[c.ID] = &cp
	s.byCode[c.Code] = c.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, classID id.ClassID) (*Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[classID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Class, 0, len(s.classes))
	for _, c := range s.classes {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) ListByLecturer(_ context.Context, lecturerID id.UserID) ([]*Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Class
	for _, c := range s.classes {
		if c.LecturerID == lecturerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SaveSlot(_ context.Context, slot *Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[slot.ClassID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *slot
	s.slots[slot.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindSlotByID(_ context.Context, slotID id.SlotID) (*Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

func (s *InMemoryStore) ListSlotsByClass(_ context.Context, classID id.ClassID) ([]*Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Slot
	for _, slot := range s.slots {
		if slot.ClassID == classID {
			cp := *slot
			out = append(out, &cp)
		}
	}
	return out, nil
}
