package lecture

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store persists lecture records. Implementations must make AdvanceStatus a
// compare-and-set: the write succeeds only when the persisted status still
// equals expected. That conditional update is what serializes concurrent
// generation runs for the same lecture.
type Store interface {
	Save(ctx context.Context, lec *Lecture) error
	FindByID(ctx context.Context, lectureID id.LectureID) (*Lecture, error)
	ListByClass(ctx context.Context, classID id.ClassID) ([]*Lecture, error)

	// AdvanceStatus sets the status to next only if the current persisted
	// status equals expected. Returns sentinel.ErrStatusChanged when the
	// guard fails and sentinel.ErrNotFound when the lecture is absent.
	AdvanceStatus(ctx context.Context, lectureID id.LectureID, expected, next Status) error
}
