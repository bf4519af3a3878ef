package evidence

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store persists evidence items. Append-only.
type Store interface {
	Append(ctx context.Context, item *Item) error
	ListByLecture(ctx context.Context, lectureID id.LectureID) ([]*Item, error)
}
