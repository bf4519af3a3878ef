// Package enrollment owns student registration to classes. Only APPROVED
// enrollments count toward a lecture's roster at generation time.
package enrollment

import (
	"time"

	id "rollcall/pkg/domain"
)

// Status is the enrollment review status.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Enrollment captures a student's registration to a class.
type Enrollment struct {
	ID          id.EnrollmentID
	ClassID     id.ClassID
	StudentID   id.StudentID
	Status      Status
	RequestedAt time.Time
	DecidedAt   *time.Time
	DecidedBy   id.UserID
}
