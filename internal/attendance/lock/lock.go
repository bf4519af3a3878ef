// Package lock provides the per-lecture mutual-exclusion lock the generation
// run holds while it reads, scores, and writes. The lecture store's
// compare-and-set status update is the correctness backstop; this lock
// exists so two racing triggers don't both do the expensive work before one
// of them loses the compare-and-set.
package lock

import (
	"context"

	id "rollcall/pkg/domain"
)

// Locker serializes generation runs per lecture id. Acquire returns a
// release function on success and sentinel.ErrLockHeld when another run owns
// the lock. Release is best-effort; the TTL reclaims locks from crashed
// holders.
type Locker interface {
	Acquire(ctx context.Context, lectureID id.LectureID) (release func(), err error)
}
