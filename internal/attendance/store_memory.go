package attendance

import (
	"context"
	"sync"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemoryStore is the test and single-node implementation of Store.
type InMemoryStore struct {
	mu              sync.RWMutex
	recordByLecture map[id.LectureID]Record
	entriesByRecord map[id.RecordID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		recordByLecture: make(map[id.LectureID]Record),
		entriesByRecord: make(map[id.RecordID][]Entry),
	}
}

func (s *InMemoryStore) CreateRecordWithEntries(_ context.Context, rec *Record, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.recordByLecture[rec.LectureID]; exists {
		return sentinel.ErrConflict
	}
	s.recordByLecture[rec.LectureID] = *rec
	s.entriesByRecord[rec.ID] = append([]Entry{}, entries...)
	return nil
}

func (s *InMemoryStore) FindRecordByLecture(_ context.Context, lectureID id.LectureID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recordByLecture[lectureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := rec
	return &copied, nil
}

func (s *InMemoryStore) ListEntriesByRecord(_ context.Context, recordID id.RecordID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entriesByRecord[recordID]
	out := make([]*Entry, 0, len(stored))
	for i := range stored {
		copied := stored[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) FindEntryByID(_ context.Context, entryID id.EntryID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entries := range s.entriesByRecord {
		for i := range entries {
			if entries[i].ID == entryID {
				copied := entries[i]
				return &copied, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}
