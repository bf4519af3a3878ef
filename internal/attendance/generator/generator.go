// Package generator defines the scoring contract between the attendance
// lifecycle and whatever turns photos plus a roster into per-student
// outcomes. The lifecycle trusts generator output verbatim, so a real
// face-matching model can replace the stub without touching the state
// machine or persistence.
package generator

import (
	"context"

	"rollcall/internal/attendance"
	"rollcall/internal/enrollment"
	"rollcall/internal/evidence"
	id "rollcall/pkg/domain"
)

// StudentResult is one student's scored outcome.
type StudentResult struct {
	StudentID       id.StudentID
	Status          attendance.EntryStatus
	ConfidenceScore float64
}

// Output is a complete scoring result: exactly one StudentResult per roster
// member, plus the aggregate score recorded on the attendance record.
type Output struct {
	Method         string
	AggregateScore float64
	Results        []StudentResult
}

// Generator scores a lecture's evidence against its roster.
//
// Contract: every roster student receives exactly one result, and every
// confidence score lies in [0,1]. An implementation that cannot satisfy that
// for any student must fail the whole run; the lifecycle treats a short or
// malformed result set as fatal and leaves the lecture retryable.
type Generator interface {
	// Method identifies the implementation; it is persisted on each record
	// as generation_method so audits can tell which scorer produced it.
	Method() string
	Score(ctx context.Context, items []*evidence.Item, roster []*enrollment.Enrollment) (*Output, error)
}
