//go:build integration

package lock

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

func TestRedisLocker_Integration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	defer rc.Terminate(t)

	ctx := context.Background()

	t.Run("mutual exclusion per lecture", func(t *testing.T) {
		locker := NewRedisLocker(rc.Client, 30*time.Second)
		lectureID := id.NewLectureID()

		release, err := locker.Acquire(ctx, lectureID)
		require.NoError(t, err)

		_, err = locker.Acquire(ctx, lectureID)
		assert.ErrorIs(t, err, sentinel.ErrLockHeld)

		release()

		release2, err := locker.Acquire(ctx, lectureID)
		require.NoError(t, err)
		release2()
	})

	t.Run("ttl reclaims abandoned lock", func(t *testing.T) {
		locker := NewRedisLocker(rc.Client, 200*time.Millisecond)
		lectureID := id.NewLectureID()

		_, err := locker.Acquire(ctx, lectureID)
		require.NoError(t, err)
		// Holder "crashes": never releases.

		assert.Eventually(t, func() bool {
			release, err := locker.Acquire(ctx, lectureID)
			if err != nil {
				return false
			}
			release()
			return true
		}, 2*time.Second, 50*time.Millisecond)
	})

	t.Run("stale release does not free successor lock", func(t *testing.T) {
		staleLocker := NewRedisLocker(rc.Client, 100*time.Millisecond)
		lectureID := id.NewLectureID()

		staleRelease, err := staleLocker.Acquire(ctx, lectureID)
		require.NoError(t, err)

		// Let the stale holder's TTL lapse, then acquire with a fresh TTL.
		time.Sleep(200 * time.Millisecond)
		locker := NewRedisLocker(rc.Client, 30*time.Second)
		release, err := locker.Acquire(ctx, lectureID)
		require.NoError(t, err)
		defer release()

		// The stale holder releasing now must not remove the new lock.
		staleRelease()
		_, err = locker.Acquire(ctx, lectureID)
		assert.ErrorIs(t, err, sentinel.ErrLockHeld)
	})
}
