// Package lecture owns the lecture record and its status state machine.
//
// A lecture advances monotonically along
// CREATED -> PHOTO_UPLOADED -> ATTENDANCE_GENERATED -> LOCKED; PROCESSING is
// reserved between PHOTO_UPLOADED and ATTENDANCE_GENERATED for a future
// asynchronous scoring model. Backward transitions are never permitted and
// lectures are never deleted.
package lecture

import (
	"time"

	id "rollcall/pkg/domain"
)

// Status is the lecture lifecycle status.
type Status string

const (
	StatusCreated             Status = "CREATED"
	StatusPhotoUploaded       Status = "PHOTO_UPLOADED"
	StatusProcessing          Status = "PROCESSING" // reserved
	StatusAttendanceGenerated Status = "ATTENDANCE_GENERATED"
	StatusLocked              Status = "LOCKED"
)

// statusRank defines the total order used to enforce monotonic advancement.
var statusRank = map[Status]int{
	StatusCreated:             0,
	StatusPhotoUploaded:       1,
	StatusProcessing:          2,
	StatusAttendanceGenerated: 3,
	StatusLocked:              4,
}

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of the status in the lifecycle order.
func (s Status) Rank() int {
	return statusRank[s]
}

// CanAdvanceTo reports whether moving from s to next respects the one-way
// lifecycle. Equal or backward moves are rejected.
func (s Status) CanAdvanceTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return statusRank[next] > statusRank[s]
}

// Lecture is one scheduled class session for which attendance must be
// recorded.
type Lecture struct {
	ID        id.LectureID
	ClassID   id.ClassID
	SlotID    id.SlotID
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
