package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memCache is a minimal in-memory out.Cache for limiter tests.
type memCache struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]int64)}
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strconv.FormatInt(m.values[key], 10), nil
}

func (m *memCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}
func (m *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (m *memCache) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (m *memCache) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key]++
	return m.values[key], nil
}

func TestWindowKeyAlignment(t *testing.T) {
	limiter := NewFixedWindowLimiter(newMemCache(), "ai:gen", 20, time.Hour)
	userID := uuid.New()

	base := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	// Times within the same hour map to the same key.
	k1 := limiter.WindowKey(userID, base.Add(1*time.Minute))
	k2 := limiter.WindowKey(userID, base.Add(59*time.Minute))
	if k1 != k2 {
		t.Errorf("keys within one window differ: %s vs %s", k1, k2)
	}

	// The next hour maps to a different key.
	k3 := limiter.WindowKey(userID, base.Add(61*time.Minute))
	if k1 == k3 {
		t.Errorf("keys across windows should differ, both %s", k1)
	}

	// Different users never share a key.
	k4 := limiter.WindowKey(uuid.New(), base.Add(1*time.Minute))
	if k1 == k4 {
		t.Errorf("keys across users should differ")
	}
}

func TestAllowWithinQuota(t *testing.T) {
	limiter := NewFixedWindowLimiter(newMemCache(), "ai:gen", 3, time.Hour)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(ctx, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retryAfter, err := limiter.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("request over quota should be denied")
	}
	if retryAfter <= 0 || retryAfter > 3600 {
		t.Errorf("retryAfter = %d, want within (0, 3600]", retryAfter)
	}

	// Another user still has full quota.
	ok, _, _ = limiter.Allow(ctx, uuid.New())
	if !ok {
		t.Errorf("quota should be per user")
	}
}
