package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

const (
	sessionKeyPrefix  = "chatbot:session:"
	defaultSessionTTL = 24 * time.Hour
)

// RedisSessions implements SessionStore on Redis. Each session is a JSON
// value whose TTL is refreshed on every read and write; a session idle for
// longer than the TTL is gone and its next message starts a new one.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessions creates a Redis-backed session store.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessions{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSessions) key(id string) string {
	return sessionKeyPrefix + id
}

// Get implements SessionStore.
func (r *RedisSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := r.key(id)
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var s domain.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	// Refresh TTL on read; a failed refresh is not fatal.
	_ = r.client.Expire(ctx, key, r.ttl).Err()

	return &s, nil
}

// Put implements SessionStore.
func (r *RedisSessions) Put(ctx context.Context, s *domain.Session) error {
	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("put session %s: %w", s.ID, err)
	}
	return nil
}

// Delete implements SessionStore.
func (r *RedisSessions) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Close implements SessionStore.
func (r *RedisSessions) Close() error {
	return r.client.Close()
}
