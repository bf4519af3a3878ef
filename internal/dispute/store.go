package dispute

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store persists disputes and entry overrides. At most one OPEN dispute per
// entry; overrides are append-only.
type Store interface {
	Save(ctx context.Context, d *Dispute) error
	FindByID(ctx context.Context, disputeID id.DisputeID) (*Dispute, error)
	FindOpenByEntry(ctx context.Context, entryID id.EntryID) (*Dispute, error)
	ListByLecture(ctx context.Context, lectureID id.LectureID) ([]*Dispute, error)
	Resolve(ctx context.Context, d *Dispute) error

	AppendOverride(ctx context.Context, o *Override) error
	// LatestOverrideByEntry returns the newest override for the entry, or
	// sentinel.ErrNotFound when the entry was never overridden.
	LatestOverrideByEntry(ctx context.Context, entryID id.EntryID) (*Override, error)
}
