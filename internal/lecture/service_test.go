package lecture

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/audit"
	"rollcall/internal/class"
	"rollcall/internal/evidence"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

type noopAuditor struct{}

func (noopAuditor) Emit(context.Context, audit.Event) {}

type lectureFixture struct {
	service  *Service
	evidence *evidence.InMemoryStore
	classID  id.ClassID
	slotID   id.SlotID
	ownerCtx context.Context
}

func newLectureFixture(t *testing.T) *lectureFixture {
	t.Helper()
	ctx := context.Background()

	classes := class.NewInMemoryStore()
	ev := evidence.NewInMemoryStore()
	svc := NewService(slog.New(slog.DiscardHandler), NewInMemoryStore(), classes, ev, noopAuditor{})

	lecturerID := id.NewUserID()
	classID := id.NewClassID()
	require.NoError(t, classes.Save(ctx, &class.Class{
		ID: classID, Code: "CS101", Name: "Intro", LecturerID: lecturerID,
	}))
	slotID := id.NewSlotID()
	require.NoError(t, classes.SaveSlot(ctx, &class.Slot{
		ID: slotID, ClassID: classID, Weekday: time.Tuesday, StartsAt: "10:00", Duration: 90 * time.Minute,
	}))

	return &lectureFixture{
		service:  svc,
		evidence: ev,
		classID:  classID,
		slotID:   slotID,
		ownerCtx: requestcontext.WithUserRole(
			requestcontext.WithUserID(ctx, lecturerID), user.RoleLecturer),
	}
}

func TestSchedule(t *testing.T) {
	f := newLectureFixture(t)

	lec, err := f.service.Schedule(f.ownerCtx, f.classID, f.slotID)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, lec.Status)

	t.Run("slot of another class is rejected", func(t *testing.T) {
		_, err := f.service.Schedule(f.ownerCtx, f.classID, id.NewSlotID())
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})

	t.Run("non-owner cannot schedule", func(t *testing.T) {
		strangerCtx := requestcontext.WithUserRole(
			requestcontext.WithUserID(context.Background(), id.NewUserID()),
			user.RoleLecturer,
		)
		_, err := f.service.Schedule(strangerCtx, f.classID, f.slotID)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}

func TestRegisterPhoto(t *testing.T) {
	f := newLectureFixture(t)
	lec, err := f.service.Schedule(f.ownerCtx, f.classID, f.slotID)
	require.NoError(t, err)

	item, err := f.service.RegisterPhoto(f.ownerCtx, lec.ID, "photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, lec.ID, item.LectureID)

	reloaded, err := f.service.Get(f.ownerCtx, lec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPhotoUploaded, reloaded.Status, "first photo advances the lecture")

	_, err = f.service.RegisterPhoto(f.ownerCtx, lec.ID, "photos/b.jpg")
	require.NoError(t, err, "more photos may arrive while PHOTO_UPLOADED")

	items, err := f.service.ListEvidence(f.ownerCtx, lec.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	t.Run("empty pointer rejected", func(t *testing.T) {
		_, err := f.service.RegisterPhoto(f.ownerCtx, lec.ID, "  ")
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
	})

	t.Run("frozen after generation", func(t *testing.T) {
		require.NoError(t, f.service.store.AdvanceStatus(context.Background(), lec.ID, StatusPhotoUploaded, StatusAttendanceGenerated))
		_, err := f.service.RegisterPhoto(f.ownerCtx, lec.ID, "photos/late.jpg")
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidState))
	})
}
