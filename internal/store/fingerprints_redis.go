package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fingerprintKeyPrefix  = "chatbot:fingerprint:"
	defaultFingerprintTTL = 5 * time.Minute
	fingerprintWait       = 2 * time.Second
)

// RedisFingerprints remembers delivery fingerprints in Redis so every
// replica sees the same redeliveries.
type RedisFingerprints struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFingerprints creates a fingerprint filter remembering keys for ttl.
func NewRedisFingerprints(client *redis.Client, ttl time.Duration) *RedisFingerprints {
	if ttl <= 0 {
		ttl = defaultFingerprintTTL
	}
	return &RedisFingerprints{client: client, ttl: ttl}
}

// Seen records key and reports whether it was already recorded. An empty
// key is never seen. When Redis is unreachable the delivery is let through
// and the per-session dedupe window still applies.
func (f *RedisFingerprints) Seen(key string) bool {
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), fingerprintWait)
	defer cancel()

	fresh, err := f.client.SetNX(ctx, fingerprintKeyPrefix+key, 1, f.ttl).Result()
	if err != nil {
		slog.Warn("Fingerprint check failed", "error", err)
		return false
	}
	return !fresh
}
