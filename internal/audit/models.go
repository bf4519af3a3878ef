// Package audit captures who did what to which entity. Events are emitted
// from domain logic through a buffered publisher and drained by a background
// worker; emission is fire-and-forget and never blocks or fails the
// operation that produced it.
package audit

import (
	"time"

	id "rollcall/pkg/domain"
)

// Action names a domain event worth keeping.
type Action string

const (
	ActionUserLoggedIn        Action = "user_logged_in"
	ActionClassCreated        Action = "class_created"
	ActionEnrollmentRequested Action = "enrollment_requested"
	ActionEnrollmentApproved  Action = "enrollment_approved"
	ActionEnrollmentRejected  Action = "enrollment_rejected"
	ActionLectureScheduled    Action = "lecture_scheduled"
	ActionPhotoRegistered     Action = "photo_registered"
	ActionAttendanceGenerated Action = "attendance_generated"
	ActionAttendanceSkipped   Action = "attendance_skipped"
	ActionDisputeFiled        Action = "dispute_filed"
	ActionDisputeResolved     Action = "dispute_resolved"
)

// Event is one audit trail entry. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    Action
	ActorID   id.UserID
	// Subject identifies the entity acted on (lecture id, enrollment id...).
	Subject   string
	Detail    string
	RequestID string
}
