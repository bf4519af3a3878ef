package lecture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

func newTestLecture(status Status) *Lecture {
	now := time.Now()
	return &Lecture{
		ID:        id.NewLectureID(),
		ClassID:   id.NewClassID(),
		SlotID:    id.NewSlotID(),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInMemoryStore_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	lec := newTestLecture(StatusCreated)

	require.NoError(t, store.Save(ctx, lec))

	found, err := store.FindByID(ctx, lec.ID)
	require.NoError(t, err)
	assert.Equal(t, lec.ID, found.ID)
	assert.Equal(t, StatusCreated, found.Status)

	_, err = store.FindByID(ctx, id.NewLectureID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_AdvanceStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("advances when expected matches", func(t *testing.T) {
		store := NewInMemoryStore()
		lec := newTestLecture(StatusPhotoUploaded)
		require.NoError(t, store.Save(ctx, lec))

		err := store.AdvanceStatus(ctx, lec.ID, StatusPhotoUploaded, StatusAttendanceGenerated)
		require.NoError(t, err)

		found, err := store.FindByID(ctx, lec.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusAttendanceGenerated, found.Status)
	})

	t.Run("rejects stale expected status", func(t *testing.T) {
		store := NewInMemoryStore()
		lec := newTestLecture(StatusAttendanceGenerated)
		require.NoError(t, store.Save(ctx, lec))

		err := store.AdvanceStatus(ctx, lec.ID, StatusPhotoUploaded, StatusAttendanceGenerated)
		assert.ErrorIs(t, err, sentinel.ErrStatusChanged)
	})

	t.Run("rejects backward transition", func(t *testing.T) {
		store := NewInMemoryStore()
		lec := newTestLecture(StatusLocked)
		require.NoError(t, store.Save(ctx, lec))

		err := store.AdvanceStatus(ctx, lec.ID, StatusLocked, StatusCreated)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("missing lecture returns not found", func(t *testing.T) {
		store := NewInMemoryStore()
		err := store.AdvanceStatus(ctx, id.NewLectureID(), StatusCreated, StatusPhotoUploaded)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("exactly one of two racing writers wins", func(t *testing.T) {
		store := NewInMemoryStore()
		lec := newTestLecture(StatusPhotoUploaded)
		require.NoError(t, store.Save(ctx, lec))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.AdvanceStatus(ctx, lec.ID, StatusPhotoUploaded, StatusAttendanceGenerated)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, sentinel.ErrStatusChanged)
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestStatus_CanAdvanceTo(t *testing.T) {
	t.Run("forward moves allowed", func(t *testing.T) {
		assert.True(t, StatusCreated.CanAdvanceTo(StatusPhotoUploaded))
		assert.True(t, StatusPhotoUploaded.CanAdvanceTo(StatusAttendanceGenerated))
		assert.True(t, StatusAttendanceGenerated.CanAdvanceTo(StatusLocked))
		assert.True(t, StatusPhotoUploaded.CanAdvanceTo(StatusLocked))
	})

	t.Run("backward and no-op moves rejected", func(t *testing.T) {
		assert.False(t, StatusLocked.CanAdvanceTo(StatusAttendanceGenerated))
		assert.False(t, StatusAttendanceGenerated.CanAdvanceTo(StatusPhotoUploaded))
		assert.False(t, StatusCreated.CanAdvanceTo(StatusCreated))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		assert.False(t, Status("BOGUS").CanAdvanceTo(StatusLocked))
		assert.False(t, StatusCreated.CanAdvanceTo(Status("BOGUS")))
	})
}
