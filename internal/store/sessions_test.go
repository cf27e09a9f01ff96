package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

func newTestRedisSessions(t *testing.T, ttl time.Duration) (*RedisSessions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisSessions(client, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSessionStores(t *testing.T) {
	backends := map[string]func(t *testing.T) SessionStore{
		"memory": func(t *testing.T) SessionStore { return NewMemorySessions() },
		"redis": func(t *testing.T) SessionStore {
			s, _ := newTestRedisSessions(t, time.Hour)
			return s
		},
	}

	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			got, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, got)

			now := time.Now().Truncate(time.Millisecond)
			sess := domain.NewSession("abc", now)
			sess.Email = "a@b.com"
			sess.Status = domain.StatusAwaitingIssue
			require.NoError(t, s.Put(ctx, sess))

			got, err = s.Get(ctx, "abc")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "a@b.com", got.Email)
			assert.Equal(t, domain.StatusAwaitingIssue, got.Status)
			assert.True(t, now.Equal(got.CreatedAt))

			require.NoError(t, s.Delete(ctx, "abc"))
			got, err = s.Get(ctx, "abc")
			require.NoError(t, err)
			assert.Nil(t, got)

			assert.NoError(t, s.Delete(ctx, "abc"), "deleting a missing session is not an error")
		})
	}
}

func TestMemorySessionsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessions()

	sess := domain.NewSession("abc", time.Now())
	require.NoError(t, s.Put(ctx, sess))
	sess.Email = "mutated@example.com"

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got.Email)

	got.Status = domain.StatusEscalated
	again, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, again.Status)
	assert.Equal(t, 1, s.Len())
}

func TestRedisSessionsExpire(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisSessions(t, time.Minute)

	require.NoError(t, s.Put(ctx, domain.NewSession("abc", time.Now())))
	assert.True(t, mr.Exists(sessionKeyPrefix+"abc"))

	mr.FastForward(2 * time.Minute)

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionsRefreshTTLOnRead(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisSessions(t, time.Minute)

	require.NoError(t, s.Put(ctx, domain.NewSession("abc", time.Now())))
	mr.FastForward(40 * time.Second)

	_, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	mr.FastForward(40 * time.Second)

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
