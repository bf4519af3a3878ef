package dispute

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
	"rollcall/internal/audit"
	"rollcall/internal/class"
	"rollcall/internal/lecture"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

type noopAuditor struct{}

func (noopAuditor) Emit(context.Context, audit.Event) {}

type disputeFixture struct {
	service  *Service
	lectures *lecture.InMemoryStore

	lectureID  id.LectureID
	entry      attendance.Entry
	studentCtx context.Context
	ownerCtx   context.Context
}

// newDisputeFixture wires a locked lecture with one PRESENT entry belonging
// to the fixture student.
func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()
	ctx := context.Background()

	lectures := lecture.NewInMemoryStore()
	classes := class.NewInMemoryStore()
	users := user.NewInMemoryStore()
	records := attendance.NewInMemoryStore()
	svc := NewService(slog.New(slog.DiscardHandler), NewInMemoryStore(),
		records, lectures, classes, users, noopAuditor{})

	lecturerID := id.NewUserID()
	classID := id.NewClassID()
	require.NoError(t, classes.Save(ctx, &class.Class{
		ID: classID, Code: "CS101", Name: "Intro", LecturerID: lecturerID,
	}))

	student := &user.User{
		ID:        id.NewUserID(),
		Email:     "student@rollcall.edu",
		Role:      user.RoleStudent,
		StudentID: id.NewStudentID(),
	}
	require.NoError(t, users.Save(ctx, student))

	lectureID := id.NewLectureID()
	require.NoError(t, lectures.Save(ctx, &lecture.Lecture{
		ID: lectureID, ClassID: classID, SlotID: id.NewSlotID(), Status: lecture.StatusLocked,
	}))

	rec := &attendance.Record{
		ID:        id.NewRecordID(),
		LectureID: lectureID,
		ClassID:   classID,
		Status:    attendance.RecordStatusAutoLocked,
	}
	entry := attendance.Entry{
		ID:              id.NewEntryID(),
		RecordID:        rec.ID,
		StudentID:       student.StudentID,
		Status:          attendance.EntryStatusPresent,
		ConfidenceScore: 0.85,
	}
	require.NoError(t, records.CreateRecordWithEntries(ctx, rec, []attendance.Entry{entry}))

	return &disputeFixture{
		service:   svc,
		lectures:  lectures,
		lectureID: lectureID,
		entry:     entry,
		studentCtx: requestcontext.WithUserRole(
			requestcontext.WithUserID(ctx, student.ID), user.RoleStudent),
		ownerCtx: requestcontext.WithUserRole(
			requestcontext.WithUserID(ctx, lecturerID), user.RoleLecturer),
	}
}

func TestFile(t *testing.T) {
	f := newDisputeFixture(t)

	d, err := f.service.File(f.studentCtx, f.lectureID, f.entry.ID, "I was absent that day")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, d.Status)
	assert.Equal(t, f.entry.StudentID, d.StudentID)

	t.Run("one open dispute per entry", func(t *testing.T) {
		_, err := f.service.File(f.studentCtx, f.lectureID, f.entry.ID, "again")
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))
	})
}

func TestFile_Guards(t *testing.T) {
	t.Run("lecture must be locked", func(t *testing.T) {
		f := newDisputeFixture(t)
		unlockedID := id.NewLectureID()
		require.NoError(t, f.lectures.Save(context.Background(), &lecture.Lecture{
			ID: unlockedID, ClassID: id.NewClassID(), Status: lecture.StatusPhotoUploaded,
		}))
		_, err := f.service.File(f.studentCtx, unlockedID, f.entry.ID, "too early")
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidState))
	})

	t.Run("only own entry", func(t *testing.T) {
		f := newDisputeFixture(t)
		other := &user.User{
			ID:        id.NewUserID(),
			Email:     "other@rollcall.edu",
			Role:      user.RoleStudent,
			StudentID: id.NewStudentID(),
		}
		require.NoError(t, f.service.users.Save(context.Background(), other))
		otherCtx := requestcontext.WithUserRole(
			requestcontext.WithUserID(context.Background(), other.ID), user.RoleStudent)
		_, err := f.service.File(otherCtx, f.lectureID, f.entry.ID, "not mine")
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	t.Run("reason required", func(t *testing.T) {
		f := newDisputeFixture(t)
		_, err := f.service.File(f.studentCtx, f.lectureID, f.entry.ID, "  ")
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
	})
}

func TestResolve_Upheld(t *testing.T) {
	f := newDisputeFixture(t)
	d, err := f.service.File(f.studentCtx, f.lectureID, f.entry.ID, "I was absent")
	require.NoError(t, err)

	resolved, err := f.service.Resolve(f.ownerCtx, d.ID, ResolveInput{Note: "photo clearly shows the student"})
	require.NoError(t, err)
	assert.Equal(t, StatusUpheld, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	status, err := f.service.EffectiveEntryStatus(context.Background(), &f.entry)
	require.NoError(t, err)
	assert.Equal(t, attendance.EntryStatusPresent, status, "upheld dispute leaves the entry as generated")

	t.Run("cannot resolve twice", func(t *testing.T) {
		_, err := f.service.Resolve(f.ownerCtx, d.ID, ResolveInput{Note: "again"})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidState))
	})
}

func TestResolve_Overturned(t *testing.T) {
	f := newDisputeFixture(t)
	d, err := f.service.File(f.studentCtx, f.lectureID, f.entry.ID, "I was excused")
	require.NoError(t, err)

	resolved, err := f.service.Resolve(f.ownerCtx, d.ID, ResolveInput{
		Overturn:  true,
		NewStatus: attendance.EntryStatusExcused,
		Note:      "medical certificate provided",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOverturned, resolved.Status)

	// The entry row is untouched; the override carries the correction.
	entry, err := f.service.records.FindEntryByID(context.Background(), f.entry.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.EntryStatusPresent, entry.Status)

	status, err := f.service.EffectiveEntryStatus(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, attendance.EntryStatusExcused, status)
}

func TestResolve_Guards(t *testing.T) {
	f := newDisputeFixture(t)
	d, err := f.service.File(f.studentCtx, f.lectureID, f.entry.ID, "wrong status")
	require.NoError(t, err)

	t.Run("note required", func(t *testing.T) {
		_, err := f.service.Resolve(f.ownerCtx, d.ID, ResolveInput{})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
	})

	t.Run("overturn needs a different status", func(t *testing.T) {
		_, err := f.service.Resolve(f.ownerCtx, d.ID, ResolveInput{
			Overturn:  true,
			NewStatus: attendance.EntryStatusPresent,
			Note:      "same status",
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
	})

	t.Run("stranger lecturer forbidden", func(t *testing.T) {
		strangerCtx := requestcontext.WithUserRole(
			requestcontext.WithUserID(context.Background(), id.NewUserID()),
			user.RoleLecturer,
		)
		_, err := f.service.Resolve(strangerCtx, d.ID, ResolveInput{Note: "not my class"})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}
