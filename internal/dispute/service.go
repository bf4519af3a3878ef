package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rollcall/internal/attendance"
	"rollcall/internal/audit"
	"rollcall/internal/class"
	"rollcall/internal/lecture"
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
	logger   *slog.Logger
	store    Store
	records  attendance.Store
	lectures lecture.Store
	classes  class.Store
	users    user.Store
	auditor  AuditPublisher
}

func NewService(
	logger *slog.Logger,
	store Store,
	records attendance.Store,
	lectures lecture.Store,
	classes class.Store,
	users user.Store,
	auditor AuditPublisher,
) *Service {
	return &Service{
		logger:   logger,
		store:    store,
		records:  records,
		lectures: lectures,
		classes:  classes,
		users:    users,
		auditor:  auditor,
	}
}

// File opens a dispute against the caller's own attendance entry. The
// lecture must be LOCKED: disputing a run that has not finished makes no
// sense, and entries only exist after it has.
func (s *Service) File(ctx context.Context, lectureID id.LectureID, entryID id.EntryID, reason string) (*Dispute, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "reason is required")
	}

	userID := requestcontext.UserID(ctx)
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.StudentID.IsZero() {
		return nil, domainerrors.New(domainerrors.CodeForbidden, "only students may file disputes")
	}

	lec, err := s.lectures.FindByID(ctx, lectureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "lecture not found")
		}
		return nil, fmt.Errorf("find lecture: %w", err)
	}
	if lec.Status != lecture.StatusLocked {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "attendance is not finalized for this lecture")
	}

	rec, err := s.records.FindRecordByLecture(ctx, lectureID)
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	entry, err := s.records.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "attendance entry not found")
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	if entry.RecordID != rec.ID {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "entry does not belong to this lecture")
	}
	if entry.StudentID != u.StudentID {
		return nil, domainerrors.New(domainerrors.CodeForbidden, "students may only dispute their own entry")
	}

	d := &Dispute{
		ID:        id.NewDisputeID(),
		LectureID: lectureID,
		EntryID:   entryID,
		StudentID: u.StudentID,
		FiledBy:   userID,
		Reason:    strings.TrimSpace(reason),
		Status:    StatusOpen,
		FiledAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "an open dispute already exists for this entry")
		}
		return nil, fmt.Errorf("save dispute: %w", err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionDisputeFiled,
		ActorID: userID,
		Subject: d.ID.String(),
		Detail:  entryID.String(),
	})
	return d, nil
}

// ResolveInput is the lecturer's decision. NewStatus is consulted only when
// Overturn is true.
type ResolveInput struct {
	Overturn  bool
	NewStatus attendance.EntryStatus
	Note      string
}

// Resolve closes an open dispute. Overturning appends an override carrying
// the corrected status; the original entry row is untouched either way.
func (s *Service) Resolve(ctx context.Context, disputeID id.DisputeID, input ResolveInput) (*Dispute, error) {
	if strings.TrimSpace(input.Note) == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "resolution note is required")
	}

	d, err := s.store.FindByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "dispute not found")
		}
		return nil, fmt.Errorf("find dispute: %w", err)
	}
	if d.Status != StatusOpen {
		return nil, domainerrors.New(domainerrors.CodeInvalidState,
			fmt.Sprintf("dispute already resolved: %s", d.Status))
	}

	if err := s.authorizeResolver(ctx, d); err != nil {
		return nil, err
	}

	resolverID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)
	d.ResolvedAt = &now
	d.ResolvedBy = resolverID
	d.ResolutionNote = strings.TrimSpace(input.Note)

	if input.Overturn {
		if !input.NewStatus.Valid() {
			return nil, domainerrors.New(domainerrors.CodeInvalidInput, "unknown entry status")
		}
		entry, err := s.records.FindEntryByID(ctx, d.EntryID)
		if err != nil {
			return nil, fmt.Errorf("find entry: %w", err)
		}
		current, err := s.EffectiveEntryStatus(ctx, entry)
		if err != nil {
			return nil, err
		}
		if input.NewStatus == current {
			return nil, domainerrors.New(domainerrors.CodeInvalidInput, "new status equals the current status")
		}
		d.Status = StatusOverturned
	} else {
		d.Status = StatusUpheld
	}

	if err := s.store.Resolve(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, domainerrors.New(domainerrors.CodeInvalidState, "dispute already resolved")
		}
		return nil, fmt.Errorf("resolve dispute: %w", err)
	}

	if d.Status == StatusOverturned {
		override := &Override{
			ID:        id.NewOverrideID(),
			EntryID:   d.EntryID,
			DisputeID: d.ID,
			Status:    input.NewStatus,
			CreatedAt: now,
			CreatedBy: resolverID,
		}
		if err := s.store.AppendOverride(ctx, override); err != nil {
			return nil, fmt.Errorf("append override: %w", err)
		}
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionDisputeResolved,
		ActorID: resolverID,
		Subject: d.ID.String(),
		Detail:  string(d.Status),
	})
	s.logger.InfoContext(ctx, "dispute resolved",
		"dispute_id", d.ID.String(),
		"status", string(d.Status),
	)
	return d, nil
}

// ListByLecture returns a lecture's disputes.
func (s *Service) ListByLecture(ctx context.Context, lectureID id.LectureID) ([]*Dispute, error) {
	return s.store.ListByLecture(ctx, lectureID)
}

// EffectiveEntryStatus is the entry's status after overrides: the newest
// override wins, otherwise the generated status stands.
func (s *Service) EffectiveEntryStatus(ctx context.Context, entry *attendance.Entry) (attendance.EntryStatus, error) {
	override, err := s.store.LatestOverrideByEntry(ctx, entry.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return entry.Status, nil
		}
		return "", fmt.Errorf("find override: %w", err)
	}
	return override.Status, nil
}

func (s *Service) authorizeResolver(ctx context.Context, d *Dispute) error {
	if requestcontext.UserRole(ctx) == user.RoleAdmin {
		return nil
	}
	lec, err := s.lectures.FindByID(ctx, d.LectureID)
	if err != nil {
		return fmt.Errorf("find lecture: %w", err)
	}
	c, err := s.classes.FindByID(ctx, lec.ClassID)
	if err != nil {
		return fmt.Errorf("find class: %w", err)
	}
	if c.LecturerID != requestcontext.UserID(ctx) {
		return domainerrors.New(domainerrors.CodeForbidden, "not the class lecturer")
	}
	return nil
}
