package lecture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rollcall/internal/audit"
	"rollcall/internal/class"
	"rollcall/internal/evidence"
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
	classes  class.Store
	evidence evidence.Store
	auditor  AuditPublisher
}

func NewService(logger *slog.Logger, store Store, classes class.Store, ev evidence.Store, auditor AuditPublisher) *Service {
	return &Service{
		logger:   logger,
		store:    store,
		classes:  classes,
		evidence: ev,
		auditor:  auditor,
	}
}

// Schedule creates a lecture in CREATED for a class and one of its slots.
func (s *Service) Schedule(ctx context.Context, classID id.ClassID, slotID id.SlotID) (*Lecture, error) {
	c, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "class not found")
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	if err := s.authorizeOwner(ctx, c); err != nil {
		return nil, err
	}

	slot, err := s.classes.FindSlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "slot not found")
		}
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot.ClassID != classID {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "slot belongs to a different class")
	}

	now := requestcontext.Now(ctx)
	lec := &Lecture{
		ID:        id.NewLectureID(),
		ClassID:   classID,
		SlotID:    slotID,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, lec); err != nil {
		return nil, fmt.Errorf("save lecture: %w", err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionLectureScheduled,
		ActorID: requestcontext.UserID(ctx),
		Subject: lec.ID.String(),
		Detail:  classID.String(),
	})
	s.logger.InfoContext(ctx, "lecture scheduled",
		"lecture_id", lec.ID.String(),
		"class_id", classID.String(),
	)
	return lec, nil
}

// RegisterPhoto appends an evidence item for the lecture and, on the first
// photo, advances CREATED -> PHOTO_UPLOADED. Photos may keep arriving while
// the lecture sits at PHOTO_UPLOADED; once generation has run the evidence
// set is frozen.
func (s *Service) RegisterPhoto(ctx context.Context, lectureID id.LectureID, storagePointer string) (*evidence.Item, error) {
	if strings.TrimSpace(storagePointer) == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "storage pointer is required")
	}

	lec, err := s.store.FindByID(ctx, lectureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "lecture not found")
		}
		return nil, fmt.Errorf("find lecture: %w", err)
	}
	c, err := s.classes.FindByID(ctx, lec.ClassID)
	if err != nil {
		return nil, fmt.Errorf("find class: %w", err)
	}
	if err := s.authorizeOwner(ctx, c); err != nil {
		return nil, err
	}

	if lec.Status != StatusCreated && lec.Status != StatusPhotoUploaded {
		return nil, domainerrors.New(domainerrors.CodeInvalidState,
			fmt.Sprintf("cannot register photos on a %s lecture", lec.Status))
	}

	item := &evidence.Item{
		ID:             id.NewEvidenceID(),
		LectureID:      lectureID,
		StoragePointer: storagePointer,
		UploadedBy:     requestcontext.UserID(ctx),
		UploadedAt:     requestcontext.Now(ctx),
	}
	if err := s.evidence.Append(ctx, item); err != nil {
		return nil, fmt.Errorf("append evidence: %w", err)
	}

	if lec.Status == StatusCreated {
		err := s.store.AdvanceStatus(ctx, lectureID, StatusCreated, StatusPhotoUploaded)
		if err != nil && !errors.Is(err, sentinel.ErrStatusChanged) {
			return nil, fmt.Errorf("advance lecture status: %w", err)
		}
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionPhotoRegistered,
		ActorID: requestcontext.UserID(ctx),
		Subject: lectureID.String(),
		Detail:  storagePointer,
	})
	return item, nil
}

// Get returns a lecture by id.
func (s *Service) Get(ctx context.Context, lectureID id.LectureID) (*Lecture, error) {
	lec, err := s.store.FindByID(ctx, lectureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "lecture not found")
		}
		return nil, fmt.Errorf("find lecture: %w", err)
	}
	return lec, nil
}

// ListByClass returns a class's lectures.
func (s *Service) ListByClass(ctx context.Context, classID id.ClassID) ([]*Lecture, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "class not found")
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return s.store.ListByClass(ctx, classID)
}

// ListEvidence returns a lecture's registered photos.
func (s *Service) ListEvidence(ctx context.Context, lectureID id.LectureID) ([]*evidence.Item, error) {
	if _, err := s.Get(ctx, lectureID); err != nil {
		return nil, err
	}
	return s.evidence.ListByLecture(ctx, lectureID)
}

func (s *Service) authorizeOwner(ctx context.Context, c *class.Class) error {
	if requestcontext.UserRole(ctx) == user.RoleAdmin {
		return nil
	}
	if c.LecturerID != requestcontext.UserID(ctx) {
		return domainerrors.New(domainerrors.CodeForbidden, "not the class lecturer")
	}
	return nil
}
