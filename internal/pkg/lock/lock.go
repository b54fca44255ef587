package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the lock.
var ErrNotAcquired = errors.New("lock not acquired")

// release only deletes the key when the token still matches, so an
// expired lock re-acquired by someone else is never released by us.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// Locker provides per-key advisory locks backed by Redis.
// A nil Redis client disables locking entirely: Acquire always succeeds
// with a no-op release. That keeps single-operator batch runs working in
// environments without Redis, at the documented cost of no protection
// against concurrent balance writers.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

// Acquire takes the lock for key, returning a release func.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.rdb == nil {
		return func() {}, nil
	}

	token := uuid.New().String()
	ok, err := l.rdb.SetNX(ctx, "lock:"+key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	release := func() {
		// Best effort; the TTL reclaims the lock if this fails.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		l.rdb.Eval(releaseCtx, releaseScript, []string{"lock:" + key}, token)
	}
	return release, nil
}
