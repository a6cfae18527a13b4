package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// LoginLimiter counts login attempts per identifier in fixed windows.
// Key format: login_attempts:<sha256(identifier)>
type LoginLimiter struct {
	client      redis.UniversalClient
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter. Non-positive limits fall back to
// 5 attempts per 15 minutes.
func NewLoginLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Acquire counts one attempt and reports whether the count is still within
// the budget. INCR and the window's EXPIRE NX run in one MULTI/EXEC, so the
// returned count is authoritative even under concurrent attempts and the
// window starts with the first attempt.
func (l *LoginLimiter) Acquire(ctx context.Context, identifier string) (bool, error) {
	key := l.key(identifier)
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("login limiter acquire: %w", err)
	}
	return incr.Val() <= l.maxAttempts, nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, l.key(identifier)).Err()
}

// Identifiers are hashed so raw emails never land in Redis keys.
func (l *LoginLimiter) key(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return "login_attempts:" + hex.EncodeToString(sum[:])
}
