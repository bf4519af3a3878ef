package attendance

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store persists attendance records and entries. Insert-only: the dispute
// workflow supersedes entries with override rows, it never updates them.
type Store interface {
	// CreateRecordWithEntries persists a record and all of its entries as
	// one atomic unit. A record must never become visible with a partial
	// entry set. Returns sentinel.ErrConflict when a record already exists
	// for the lecture (1:1 invariant).
	CreateRecordWithEntries(ctx context.Context, rec *Record, entries []Entry) error

	FindRecordByLecture(ctx context.Context, lectureID id.LectureID) (*Record, error)
	ListEntriesByRecord(ctx context.Context, recordID id.RecordID) ([]*Entry, error)
	FindEntryByID(ctx context.Context, entryID id.EntryID) (*Entry, error)
}
