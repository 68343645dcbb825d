// Package ratelimit implements per-user quota limiting for expensive
// operations (AI document generation). Counters live in Redis so the limit
// holds across server instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"lexflow_server/core/port/out"

	"github.com/google/uuid"
)

// FixedWindowLimiter counts operations per user within fixed, aligned time
// windows. A one-hour window means the counter resets at the top of each hour.
type FixedWindowLimiter struct {
	cache  out.Cache
	prefix string
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter creates a limiter allowing limit operations per window.
func NewFixedWindowLimiter(cache out.Cache, prefix string, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		cache:  cache,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// WindowKey builds the counter key for a user at a given time. The window
// start is aligned to the window size so all instances agree on the key.
func (l *FixedWindowLimiter) WindowKey(userID uuid.UUID, now time.Time) string {
	windowStart := now.UTC().Truncate(l.window).Unix()
	return fmt.Sprintf("%s:%s:%d", l.prefix, userID, windowStart)
}

// RetryAfter returns the seconds remaining until the current window resets.
func (l *FixedWindowLimiter) RetryAfter(now time.Time) int {
	windowEnd := now.UTC().Truncate(l.window).Add(l.window)
	return int(windowEnd.Sub(now.UTC()).Seconds())
}

// Allow increments the user's counter and reports whether the operation is
// within quota. The first increment of a window sets the key's expiry.
func (l *FixedWindowLimiter) Allow(ctx context.Context, userID uuid.UUID) (bool, int, error) {
	now := time.Now()
	key := l.WindowKey(userID, now)

	count, err := l.cache.Incr(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		// Expire a little after the window ends to survive clock skew.
		if err := l.cache.Expire(ctx, key, l.window+time.Minute); err != nil {
			return false, 0, err
		}
	}

	if count > l.limit {
		return false, l.RetryAfter(now), nil
	}
	return true, 0, nil
}
