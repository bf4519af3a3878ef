package enrollment

import (
	"context"
	"sync"
	"time"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemoryStore is the test and single-node implementation of Store.
type InMemoryStore struct {
	mu          sync.RWMutex
	enrollments map[id.EnrollmentID]Enrollment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{enrollments: make(map[id.EnrollmentID]Enrollment)}
}

func (s *InMemoryStore) Save(_ context.Context, enr *Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.enrollments {
		if existing.ClassID == enr.ClassID && existing.StudentID == enr.StudentID && existing.ID != enr.ID {
			return sentinel.ErrConflict
		}
	}
	s.enrollments[enr.ID] = *enr
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enr, ok := s.enrollments[enrollmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := enr
	return &copied, nil
}

func (s *InMemoryStore) FindByClassAndStudent(_ context.Context, classID id.ClassID, studentID id.StudentID) (*Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, enr := range s.enrollments {
		if enr.ClassID == classID && enr.StudentID == studentID {
			copied := enr
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByClass(_ context.Context, classID id.ClassID) ([]*Enrollment, error) {
	return s.list(classID, false), nil
}

func (s *InMemoryStore) ListApprovedByClass(_ context.Context, classID id.ClassID) ([]*Enrollment, error) {
	return s.list(classID, true), nil
}

func (s *InMemoryStore) list(classID id.ClassID, approvedOnly bool) []*Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Enrollment
	for _, enr := range s.enrollments {
		if enr.ClassID != classID {
			continue
		}
		if approvedOnly && enr.Status != StatusApproved {
			continue
		}
		copied := enr
		out = append(out, &copied)
	}
	return out
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, enrollmentID id.EnrollmentID, status Status, decidedBy id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enr, ok := s.enrollments[enrollmentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	now := time.Now()
	enr.Status = status
	enr.DecidedAt = &now
	enr.DecidedBy = decidedBy
	s.enrollments[enrollmentID] = enr
	return nil
}
