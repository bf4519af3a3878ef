package enrollment

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/audit"
	"rollcall/internal/class"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

type noopAuditor struct{}

func (noopAuditor) Emit(context.Context, audit.Event) {}

type enrollmentFixture struct {
	service    *Service
	lecturerID id.UserID
	classID    id.ClassID
	studentCtx context.Context
	ownerCtx   context.Context
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()
	ctx := context.Background()

	users := user.NewInMemoryStore()
	classes := class.NewInMemoryStore()
	svc := NewService(slog.New(slog.DiscardHandler), NewInMemoryStore(), classes, users, noopAuditor{})

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

	return &enrollmentFixture{
		service:    svc,
		lecturerID: lecturerID,
		classID:    classID,
		studentCtx: requestcontext.WithUserRole(
			requestcontext.WithUserID(ctx, student.ID), user.RoleStudent),
		ownerCtx: requestcontext.WithUserRole(
			requestcontext.WithUserID(ctx, lecturerID), user.RoleLecturer),
	}
}

func TestRequest(t *testing.T) {
	f := newEnrollmentFixture(t)

	enr, err := f.service.Request(f.studentCtx, f.classID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, enr.Status)

	t.Run("duplicate request is rejected", func(t *testing.T) {
		_, err := f.service.Request(f.studentCtx, f.classID)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))
	})

	t.Run("unknown class", func(t *testing.T) {
		_, err := f.service.Request(f.studentCtx, id.NewClassID())
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func TestApproveAndRoster(t *testing.T) {
	f := newEnrollmentFixture(t)

	enr, err := f.service.Request(f.studentCtx, f.classID)
	require.NoError(t, err)

	roster, err := f.service.Roster(f.ownerCtx, f.classID)
	require.NoError(t, err)
	assert.Empty(t, roster, "requested enrollments are not on the roster")

	approved, err := f.service.Approve(f.ownerCtx, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, f.lecturerID, approved.DecidedBy)

	roster, err = f.service.Roster(f.ownerCtx, f.classID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, enr.StudentID, roster[0].StudentID)

	t.Run("decision is final", func(t *testing.T) {
		_, err := f.service.Reject(f.ownerCtx, enr.ID)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidState))
	})
}

func TestDecide_OwnershipEnforced(t *testing.T) {
	f := newEnrollmentFixture(t)

	enr, err := f.service.Request(f.studentCtx, f.classID)
	require.NoError(t, err)

	strangerCtx := requestcontext.WithUserRole(
		requestcontext.WithUserID(context.Background(), id.NewUserID()),
		user.RoleLecturer,
	)
	_, err = f.service.Approve(strangerCtx, enr.ID)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))

	adminCtx := requestcontext.WithUserRole(
		requestcontext.WithUserID(context.Background(), id.NewUserID()),
		user.RoleAdmin,
	)
	rejected, err := f.service.Reject(adminCtx, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
}
