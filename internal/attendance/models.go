// Package attendance owns the per-lecture attendance record and its entries.
// Records and entries are created exactly once by a successful generation run
// and are immutable thereafter; later corrections happen through the dispute
// workflow's append-only overrides, never by mutating these rows.
package attendance

import (
	"time"

	id "rollcall/pkg/domain"
)

// RecordStatus is the status of a generation artifact.
type RecordStatus string

const (
	// RecordStatusAutoLocked marks a record produced and finalized by the
	// automated generation run.
	RecordStatusAutoLocked RecordStatus = "AUTO_LOCKED"
)

// EntryStatus is one student's attendance outcome.
type EntryStatus string

const (
	EntryStatusPresent EntryStatus = "PRESENT"
	EntryStatusAbsent  EntryStatus = "ABSENT"
	EntryStatusExcused EntryStatus = "EXCUSED"
)

// Valid returns true when the status is a supported value.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusPresent, EntryStatusAbsent, EntryStatusExcused:
		return true
	default:
		return false
	}
}

// Record is the per-lecture summary artifact of a generation run. One record
// per lecture, ever.
type Record struct {
	ID               id.RecordID
	LectureID        id.LectureID
	ClassID          id.ClassID
	GeneratedAt      time.Time
	GenerationMethod string
	ConfidenceScore  float64
	Status           RecordStatus
}

// Entry is one student's attendance outcome within a Record.
type Entry struct {
	ID              id.EntryID
	RecordID        id.RecordID
	StudentID       id.StudentID
	Status          EntryStatus
	ConfidenceScore float64
}
