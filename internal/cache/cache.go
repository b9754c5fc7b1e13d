// Package cache provides the key-value store used to short-circuit session
// lookups. Entries are an optimisation only; callers must stay correct when
// the cache is empty or unavailable.
package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// KV is a string key-value store with per-entry expiry.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New returns a Redis-backed cache for redisURL, or an in-process cache when
// the URL is empty or Redis cannot be reached.
func New(ctx context.Context, redisURL string) KV {
	if redisURL == "" {
		log.Warn("redis disabled, using in-memory session cache", "reason", "empty redis url")
		return NewMemory()
	}

	kv, err := NewRedis(ctx, redisURL)
	if err != nil {
		log.Warn("redis disabled, using in-memory session cache", "reason", err)
		return NewMemory()
	}
	log.Info("redis session cache connected")
	return kv
}

// Mode reports which backend kv uses.
func Mode(kv KV) string {
	switch kv.(type) {
	case *Redis:
		return "redis"
	case *Memory:
		return "memory"
	default:
		return "unknown"
	}
}
