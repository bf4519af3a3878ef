package enrollment

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store persists enrollments.
type Store interface {
	Save(ctx context.Context, enr *Enrollment) error
	FindByID(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error)
	FindByClassAndStudent(ctx context.Context, classID id.ClassID, studentID id.StudentID) (*Enrollment, error)
	ListByClass(ctx context.Context, classID id.ClassID) ([]*Enrollment, error)
	// ListApprovedByClass returns the roster: approved enrollments only.
	ListApprovedByClass(ctx context.Context, classID id.ClassID) ([]*Enrollment, error)
	UpdateStatus(ctx context.Context, enrollmentID id.EnrollmentID, status Status, decidedBy id.UserID) error
}
