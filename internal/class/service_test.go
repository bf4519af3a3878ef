package class

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/audit"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

type noopAuditor struct{}

func (noopAuditor) Emit(context.Context, audit.Event) {}

func newTestService() *Service {
	return NewService(slog.New(slog.DiscardHandler), NewInMemoryStore(), noopAuditor{})
}

func TestCreate(t *testing.T) {
	svc := newTestService()
	lecturerID := id.NewUserID()

	c, err := svc.Create(context.Background(), " cs101 ", "Intro to CS", lecturerID)
	require.NoError(t, err)
	assert.Equal(t, "CS101", c.Code)
	assert.Equal(t, "Intro to CS", c.Name)
	assert.Equal(t, lecturerID, c.LecturerID)

	_, err = svc.Create(context.Background(), "CS101", "Duplicate", lecturerID)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))

	_, err = svc.Create(context.Background(), "", "No code", lecturerID)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
}

func TestAddSlot(t *testing.T) {
	svc := newTestService()
	lecturerID := id.NewUserID()
	ctx := requestcontext.WithUserRole(
		requestcontext.WithUserID(context.Background(), lecturerID),
		user.RoleLecturer,
	)

	c, err := svc.Create(ctx, "CS101", "Intro to CS", lecturerID)
	require.NoError(t, err)

	slot, err := svc.AddSlot(ctx, c.ID, time.Tuesday, "10:00", 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, c.ID, slot.ClassID)

	slots, err := svc.ListSlots(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	t.Run("rejects bad start time", func(t *testing.T) {
		_, err := svc.AddSlot(ctx, c.ID, time.Tuesday, "25:99", time.Hour)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
	})

	t.Run("rejects non-owner lecturer", func(t *testing.T) {
		otherCtx := requestcontext.WithUserRole(
			requestcontext.WithUserID(context.Background(), id.NewUserID()),
			user.RoleLecturer,
		)
		_, err := svc.AddSlot(otherCtx, c.ID, time.Monday, "09:00", time.Hour)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	t.Run("admin may edit any class", func(t *testing.T) {
		adminCtx := requestcontext.WithUserRole(
			requestcontext.WithUserID(context.Background(), id.NewUserID()),
			user.RoleAdmin,
		)
		_, err := svc.AddSlot(adminCtx, c.ID, time.Friday, "14:00", time.Hour)
		assert.NoError(t, err)
	})
}
