//go:build integration

package attendance

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

// seedLecture inserts the full parent chain a record row needs: a lecturer,
// a class, a slot and a lecture.
func seedLecture(t *testing.T, pg *containers.PostgresContainer) (id.ClassID, id.LectureID) {
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
		 VALUES ($1, $2, 4, '14:00', 120)`,
		slotID.String(), classID.String())
	require.NoError(t, err)

	lectureID := id.NewLectureID()
	_, err = pg.DB.ExecContext(ctx,
		`INSERT INTO lectures (id, class_id, slot_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, 'PHOTO_UPLOADED', now(), now())`,
		lectureID.String(), classID.String(), slotID.String())
	require.NoError(t, err)

	return classID, lectureID
}

func TestPostgresStore_CreateRecordWithEntries(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations/0001_init.sql")
	defer pg.Terminate(t)

	ctx := context.Background()
	store := NewPostgresStore(pg.DB)
	classID, lectureID := seedLecture(t, pg)

	rec := &Record{
		ID:               id.NewRecordID(),
		LectureID:        lectureID,
		ClassID:          classID,
		GeneratedAt:      time.Now().UTC().Truncate(time.Microsecond),
		GenerationMethod: "PHOTO_CLUSTER_V1",
		ConfidenceScore:  0.85,
		Status:           RecordStatusAutoLocked,
	}
	entries := []Entry{
		{ID: id.NewEntryID(), RecordID: rec.ID, StudentID: id.NewStudentID(), Status: EntryStatusPresent, ConfidenceScore: 0.85},
		{ID: id.NewEntryID(), RecordID: rec.ID, StudentID: id.NewStudentID(), Status: EntryStatusPresent, ConfidenceScore: 0.85},
	}
	require.NoError(t, store.CreateRecordWithEntries(ctx, rec, entries))

	t.Run("record round trip", func(t *testing.T) {
		got, err := store.FindRecordByLecture(ctx, lectureID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.GenerationMethod, got.GenerationMethod)
		assert.Equal(t, RecordStatusAutoLocked, got.Status)
		assert.InDelta(t, 0.85, got.ConfidenceScore, 1e-9)
	})

	t.Run("entries round trip", func(t *testing.T) {
		got, err := store.ListEntriesByRecord(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)

		one, err := store.FindEntryByID(ctx, entries[0].ID)
		require.NoError(t, err)
		assert.Equal(t, entries[0].StudentID, one.StudentID)
		assert.Equal(t, EntryStatusPresent, one.Status)
	})

	t.Run("second record for the same lecture conflicts", func(t *testing.T) {
		dup := *rec
		dup.ID = id.NewRecordID()
		err := store.CreateRecordWithEntries(ctx, &dup, nil)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("failed insert leaves nothing behind", func(t *testing.T) {
		_, otherLecture := seedLecture(t, pg)
		bad := &Record{
			ID:               id.NewRecordID(),
			LectureID:        otherLecture,
			ClassID:          classID,
			GeneratedAt:      time.Now(),
			GenerationMethod: "PHOTO_CLUSTER_V1",
			ConfidenceScore:  0.85,
			Status:           RecordStatusAutoLocked,
		}
		// Duplicate entry IDs violate the primary key mid-transaction and
		// must roll the record back with them.
		dupEntry := Entry{ID: entries[0].ID, RecordID: bad.ID, StudentID: id.NewStudentID(), Status: EntryStatusPresent, ConfidenceScore: 0.85}
		err := store.CreateRecordWithEntries(ctx, bad, []Entry{dupEntry})
		require.Error(t, err)

		_, err = store.FindRecordByLecture(ctx, otherLecture)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
