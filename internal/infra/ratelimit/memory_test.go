package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	current := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return current }})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "client:a", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d denied within limit", i+1)
		}
		if d.Remaining != 3-(i+1) {
			t.Fatalf("request %d remaining %d", i+1, d.Remaining)
		}
	}

	d, err := limiter.Allow(ctx, "client:a", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth request allowed over limit")
	}
	if d.Remaining != 0 {
		t.Fatalf("remaining %d after exhaustion", d.Remaining)
	}
}

func TestMemoryLimiter_WindowExpiryResets(t *testing.T) {
	current := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return current }})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(ctx, "client:a", 1, time.Minute); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}

	current = current.Add(time.Minute + time.Second)
	d, err := limiter.Allow(ctx, "client:a", 1, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("request denied after window expired")
	}
	if want := current.Add(time.Minute); !d.ResetAt.Equal(want) {
		t.Fatalf("reset at %v, want %v", d.ResetAt, want)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "client:a", 1, time.Minute); err != nil {
		t.Fatalf("allow: %v", err)
	}
	d, err := limiter.Allow(ctx, "client:b", 1, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("second key throttled by first key's bucket")
	}
}

func TestMemoryLimiter_NonPositiveLimitDisables(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	d, err := limiter.Allow(context.Background(), "client:a", 0, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("zero limit should disable limiting")
	}
}

func TestMemoryLimiter_BoundedAtCapacityWithLiveBuckets(t *testing.T) {
	current := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{
		Now:     func() time.Time { return current },
		MaxKeys: 4,
	}).(*memoryLimiter)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := limiter.Allow(ctx, fmt.Sprintf("client:%d", i), 5, time.Minute); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}

	// Every bucket is still live; the new key is admitted but not tracked.
	d, err := limiter.Allow(ctx, "client:overflow", 5, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("overflow key denied")
	}
	if len(limiter.buckets) != 4 {
		t.Fatalf("bucket map grew to %d entries past the cap", len(limiter.buckets))
	}
}

func TestMemoryLimiter_EvictsExpiredWhenFull(t *testing.T) {
	current := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{
		Now:     func() time.Time { return current },
		MaxKeys: 4,
	})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := limiter.Allow(ctx, fmt.Sprintf("client:%d", i), 5, time.Minute); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}

	current = current.Add(2 * time.Minute)
	d, err := limiter.Allow(ctx, "client:new", 5, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("new key denied after stale buckets should have been evicted")
	}
}
