//go:build integration

package lecture

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

func seedClass(t *testing.T, pg *containers.PostgresContainer) (id.ClassID, id.SlotID) {
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

	slotID := id.NewSlotID()
	_, err = pg.DB.ExecContext(ctx,
		`INSERT INTO class_slots (id, class_id, weekday, starts_at, duration_minutes)
		 VALUES ($1, $2, 2, '10:00', 90)`,
		slotID.String(), classID.String())
	require.NoError(t, err)

	return classID, slotID
}

func TestPostgresStore_AdvanceStatus(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations/0001_init.sql")
	defer pg.Terminate(t)

	ctx := context.Background()
	store := NewPostgresStore(pg.DB)
	classID, slotID := seedClass(t, pg)

	lec := &Lecture{
		ID:        id.NewLectureID(),
		ClassID:   classID,
		SlotID:    slotID,
		Status:    StatusPhotoUploaded,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, lec))

	t.Run("happy path", func(t *testing.T) {
		require.NoError(t, store.AdvanceStatus(ctx, lec.ID, StatusPhotoUploaded, StatusAttendanceGenerated))
		reloaded, err := store.FindByID(ctx, lec.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusAttendanceGenerated, reloaded.Status)
	})

	t.Run("stale expected status loses", func(t *testing.T) {
		err := store.AdvanceStatus(ctx, lec.ID, StatusPhotoUploaded, StatusAttendanceGenerated)
		assert.ErrorIs(t, err, sentinel.ErrStatusChanged)
	})

	t.Run("missing lecture", func(t *testing.T) {
		err := store.AdvanceStatus(ctx, id.NewLectureID(), StatusPhotoUploaded, StatusAttendanceGenerated)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("only one racing writer wins", func(t *testing.T) {
		require.NoError(t, store.AdvanceStatus(ctx, lec.ID, StatusAttendanceGenerated, StatusLocked))

		results := make(chan error, 8)
		for i := 0; i < 8; i++ {
			go func() {
				results <- store.AdvanceStatus(ctx, lec.ID, StatusAttendanceGenerated, StatusLocked)
			}()
		}
		for i := 0; i < 8; i++ {
			assert.ErrorIs(t, <-results, sentinel.ErrStatusChanged)
		}
	})
}
