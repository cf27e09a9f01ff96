package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisLockerExcludesOtherHolders(t *testing.T) {
	client, _ := newTestRedisClient(t)
	a := NewRedisLocker(client, time.Second)
	b := NewRedisLocker(client, time.Second)

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		locker := a
		if i%2 == 1 {
			locker = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "s1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestRedisLockerTimesOut(t *testing.T) {
	client, _ := newTestRedisClient(t)
	l := NewRedisLocker(client, time.Minute)

	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockTimeout))

	other, err := l.Lock(context.Background(), "s2")
	require.NoError(t, err)
	other()
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	client, mr := newTestRedisClient(t)
	l := NewRedisLocker(client, time.Second)

	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	// Lease expires and another holder takes the lock.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(lockKeyPrefix+"s1", "someone-else"))

	unlock()
	got, err := mr.Get(lockKeyPrefix + "s1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerReleases(t *testing.T) {
	client, mr := newTestRedisClient(t)
	l := NewRedisLocker(client, time.Second)

	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKeyPrefix+"s1"))

	unlock()
	assert.False(t, mr.Exists(lockKeyPrefix+"s1"))
}

func TestRedisFingerprints(t *testing.T) {
	client, mr := newTestRedisClient(t)
	a := NewRedisFingerprints(client, time.Minute)
	b := NewRedisFingerprints(client, time.Minute)

	assert.False(t, a.Seen(""))
	assert.False(t, a.Seen(""))

	assert.False(t, a.Seen("fp-1"))
	assert.True(t, b.Seen("fp-1"))
	assert.False(t, b.Seen("fp-2"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, a.Seen("fp-1"))
}
