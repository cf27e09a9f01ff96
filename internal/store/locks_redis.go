package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix   = "chatbot:lock:"
	defaultLockTTL  = 45 * time.Second
	minLockBackoff  = 10 * time.Millisecond
	maxLockBackoff  = 250 * time.Millisecond
	lockReleaseWait = 2 * time.Second
)

// ErrLockTimeout is returned when a session lock could not be acquired
// before the caller gave up.
var ErrLockTimeout = errors.New("session lock timed out")

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes work on a session across processes sharing one
// Redis. A lock is a key set with NX and a lease; holders must finish within
// the lease.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker whose leases last ttl.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// Lock blocks until the lock for id is held, ctx is done, or one lease has
// passed, and returns the release function.
func (l *RedisLocker) Lock(ctx context.Context, id string) (func(), error) {
	key := lockKeyPrefix + id
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	backoff := minLockBackoff
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if ok {
			return func() { l.release(key, token) }, nil
		}
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("lock session %s: %w", id, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock session %s: %w", id, ErrLockTimeout)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxLockBackoff)
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseWait)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		slog.Warn("Failed to release session lock", "key", key, "error", err)
	}
}
