// Package dispute lets a student contest their attendance entry on a locked
// lecture. Entries themselves are never mutated: an overturned dispute
// produces an override row, and the effective status of an entry is the
// latest override if one exists.
package dispute

import (
	"time"

	"rollcall/internal/attendance"
	id "rollcall/pkg/domain"
)

// Status is the dispute review status.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusUpheld     Status = "UPHELD"
	StatusOverturned Status = "OVERTURNED"
)

// Dispute is one student's challenge of their attendance entry.
type Dispute struct {
	ID        id.DisputeID
	LectureID id.LectureID
	EntryID   id.EntryID
	StudentID id.StudentID
	FiledBy   id.UserID
	Reason    string
	Status    Status
	FiledAt   time.Time

	ResolvedAt *time.Time
	ResolvedBy id.UserID
	// ResolutionNote is the lecturer's explanation, mandatory on resolve.
	ResolutionNote string
}

// Override is the append-only correction produced by an overturned dispute.
type Override struct {
	ID        id.OverrideID
	EntryID   id.EntryID
	DisputeID id.DisputeID
	Status    attendance.EntryStatus
	CreatedAt time.Time
	CreatedBy id.UserID
}
