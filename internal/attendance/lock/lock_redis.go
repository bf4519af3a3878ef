package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

const lockKeyPrefix = "gen:lock:"

// releaseScript deletes the lock only when the stored token matches, so a
// slow holder whose TTL already expired cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is the distributed implementation of Locker for multi-instance
// deployments. SET NX PX gives atomic acquire-with-expiry.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, lectureID id.LectureID) (func(), error) {
	key := lockKeyPrefix + lectureID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !ok {
		return nil, sentinel.ErrLockHeld
	}

	release := func() {
		// Release must not block the caller's request path; give it its
		// own deadline detached from the (possibly cancelled) run context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
