//go:build integration

package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/testutil/containers"
)

func seedClass(t *testing.T, pg *containers.PostgresContainer) (id.ClassID, id.UserID) {
	t.Helper()
	ctx := context.Background()

	lecturerID := id.NewUserID()
	_, err := pg.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, role, created_at)
		 VALUES ($1, $2, $3, 'Lecturer', 'lecturer', now())`,
		lecturerID.String(), lecturerID.String()+"@test", []byte("x"))
	require.NoError(t, err)

	classID := id.NewClassID()
	_, err = pg.DB.ExecContext(ctx,
		`INSERT INTO classes (id, code, name, lecturer_id, created_at)
		 VALUES ($1, $2, 'Integration', $3, now())`,
		classID.String(), classID.String()[:8], lecturerID.String())
	require.NoError(t, err)

	return classID, lecturerID
}

func TestPostgresStore_Enrollments(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations/0001_init.sql")
	defer pg.Terminate(t)

	ctx := context.Background()
	store := NewPostgresStore(pg.DB)
	classID, lecturerID := seedClass(t, pg)

	enr := &Enrollment{
		ID:          id.NewEnrollmentID(),
		ClassID:     classID,
		StudentID:   id.NewStudentID(),
		Status:      StatusRequested,
		RequestedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, enr))

	t.Run("duplicate class and student pair conflicts", func(t *testing.T) {
		dup := *enr
		dup.ID = id.NewEnrollmentID()
		err := store.Save(ctx, &dup)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("roster lists approved only", func(t *testing.T) {
		roster, err := store.ListApprovedByClass(ctx, classID)
		require.NoError(t, err)
		assert.Empty(t, roster)

		require.NoError(t, store.UpdateStatus(ctx, enr.ID, StatusApproved, lecturerID))

		roster, err = store.ListApprovedByClass(ctx, classID)
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, enr.StudentID, roster[0].StudentID)
		assert.Equal(t, StatusApproved, roster[0].Status)
		require.NotNil(t, roster[0].DecidedAt)
		assert.Equal(t, lecturerID, roster[0].DecidedBy)
	})

	t.Run("find by class and student", func(t *testing.T) {
		got, err := store.FindByClassAndStudent(ctx, classID, enr.StudentID)
		require.NoError(t, err)
		assert.Equal(t, enr.ID, got.ID)

		_, err = store.FindByClassAndStudent(ctx, classID, id.NewStudentID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
