package class

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/audit"
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
	auditor AuditPublisher
}

func NewService(logger *slog.Logger, store Store, auditor AuditPublisher) *Service {
	return &Service{logger: logger, store: store, auditor: auditor}
}

// Create registers a class owned by the given lecturer.
func (s *Service) Create(ctx context.Context, code, name string, lecturerID id.UserID) (*Class, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || strings.TrimSpace(name) == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "code and name are required")
	}

	c := &Class{
		ID:         id.NewClassID(),
		Code:       code,
		Name:       strings.TrimSpace(name),
		LecturerID: lecturerID,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "class code already in use")
		}
		return nil, fmt.Errorf("save class: %w", err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionClassCreated,
		ActorID: lecturerID,
		Subject: c.ID.String(),
		Detail:  c.Code,
	})
	return c, nil
}

// Get returns one class.
func (s *Service) Get(ctx context.Context, classID id.ClassID) (*Class, error) {
	c, err := s.store.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "class not found")
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return c, nil
}

// List returns all classes, or only the lecturer's when lecturerID is set.
func (s *Service) List(ctx context.Context, lecturerID id.UserID) ([]*Class, error) {
	if !lecturerID.IsZero() {
		return s.store.ListByLecturer(ctx, lecturerID)
	}
	return s.store.List(ctx)
}

// AddSlot attaches a timetable slot to a class. Only the owning lecturer or
// an admin may do this; the handler enforces the role, the service enforces
// ownership.
func (s *Service) AddSlot(ctx context.Context, classID id.ClassID, weekday time.Weekday, startsAt string, duration time.Duration) (*Slot, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "invalid weekday")
	}
	if _, err := time.Parse("15:04", startsAt); err != nil {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "starts_at must be HH:MM")
	}
	if duration <= 0 || duration > 8*time.Hour {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "duration out of range")
	}

	c, err := s.Get(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, c); err != nil {
		return nil, err
	}

	slot := &Slot{
		ID:       id.NewSlotID(),
		ClassID:  classID,
		Weekday:  weekday,
		StartsAt: startsAt,
		Duration: duration,
	}
	if err := s.store.SaveSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("save slot: %w", err)
	}
	return slot, nil
}

// ListSlots returns a class's timetable.
func (s *Service) ListSlots(ctx context.Context, classID id.ClassID) ([]*Slot, error) {
	if _, err := s.Get(ctx, classID); err != nil {
		return nil, err
	}
	return s.store.ListSlotsByClass(ctx, classID)
}

func (s *Service) authorizeOwner(ctx context.Context, c *Class) error {
	role := requestcontext.UserRole(ctx)
	if role == user.RoleAdmin {
		return nil
	}
	if c.LecturerID != requestcontext.UserID(ctx) {
		return domainerrors.New(domainerrors.CodeForbidden, "not the class lecturer")
	}
	return nil
}
