package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rollcall/internal/audit"
	"rollcall/internal/class"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// AuditPublisher records domain events. Fire-and-forget.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Service struct {
	logger  *slog.Logger
	store   Store
	classes class.Store
	users   user.Store
	auditor AuditPublisher
}

func NewService(logger *slog.Logger, store Store, classes class.Store, users user.Store, auditor AuditPublisher) *Service {
	return &Service{
		logger:  logger,
		store:   store,
		classes: classes,
		users:   users,
		auditor: auditor,
	}
}

// Request files an enrollment request by the calling student. One request
// per class and student.
func (s *Service) Request(ctx context.Context, classID id.ClassID) (*Enrollment, error) {
	userID := requestcontext.UserID(ctx)
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.StudentID.IsZero() {
		return nil, domainerrors.New(domainerrors.CodeForbidden, "only students may request enrollment")
	}

	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "class not found")
		}
		return nil, fmt.Errorf("find class: %w", err)
	}

	enr := &Enrollment{
		ID:          id.NewEnrollmentID(),
		ClassID:     classID,
		StudentID:   u.StudentID,
		Status:      StatusRequested,
		RequestedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, enr); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "enrollment already exists for this class")
		}
		return nil, fmt.Errorf("save enrollment: %w", err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionEnrollmentRequested,
		ActorID: userID,
		Subject: enr.ID.String(),
		Detail:  classID.String(),
	})
	return enr, nil
}

// Approve moves a REQUESTED enrollment to APPROVED. Only the owning
// lecturer or an admin decides.
func (s *Service) Approve(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	return s.decide(ctx, enrollmentID, StatusApproved, audit.ActionEnrollmentApproved)
}

// Reject moves a REQUESTED enrollment to REJECTED.
func (s *Service) Reject(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	return s.decide(ctx, enrollmentID, StatusRejected, audit.ActionEnrollmentRejected)
}

func (s *Service) decide(ctx context.Context, enrollmentID id.EnrollmentID, next Status, action audit.Action) (*Enrollment, error) {
	enr, err := s.store.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "enrollment not found")
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}

	// Decisions are final. REQUESTED is the only state they apply to.
	if enr.Status != StatusRequested {
		return nil, domainerrors.New(domainerrors.CodeInvalidState,
			fmt.Sprintf("enrollment already decided: %s", enr.Status))
	}

	c, err := s.classes.FindByID(ctx, enr.ClassID)
	if err != nil {
		return nil, fmt.Errorf("find class: %w", err)
	}
	deciderID := requestcontext.UserID(ctx)
	if requestcontext.UserRole(ctx) != user.RoleAdmin && c.LecturerID != deciderID {
		return nil, domainerrors.New(domainerrors.CodeForbidden, "not the class lecturer")
	}

	if err := s.store.UpdateStatus(ctx, enrollmentID, next, deciderID); err != nil {
		return nil, fmt.Errorf("update enrollment status: %w", err)
	}
	enr, err = s.store.FindByID(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("reload enrollment: %w", err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  action,
		ActorID: deciderID,
		Subject: enrollmentID.String(),
		Detail:  enr.ClassID.String(),
	})
	return enr, nil
}

// ListByClass returns all enrollments for a class, any status.
func (s *Service) ListByClass(ctx context.Context, classID id.ClassID) ([]*Enrollment, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "class not found")
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return s.store.ListByClass(ctx, classID)
}

// Roster returns the approved enrollments for a class.
func (s *Service) Roster(ctx context.Context, classID id.ClassID) ([]*Enrollment, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "class not found")
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return s.store.ListApprovedByClass(ctx, classID)
}
