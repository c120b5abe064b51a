package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		keys     []string
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, keys: []string{"10.0.0.1", "10.0.0.1", "10.0.0.1"}, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, keys: []string{"10.0.0.1", "10.0.0.1", "10.0.0.1", "10.0.0.1"}, wantPass: 2},
		{name: "different keys are independent", rps: 1, burst: 1, keys: []string{"10.0.0.1", "10.0.0.2", "10.0.0.1"}, wantPass: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for _, key := range tt.keys {
				if rl.Allow(key) {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_WaitPacesOutbound(t *testing.T) {
	rl := New(10, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if err := rl.Wait(ctx, "api.podcastindex.org"); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("first Wait() should be immediate")
	}

	start = time.Now()
	if err := rl.Wait(ctx, "api.podcastindex.org"); err != nil {
		t.Fatalf("second Wait() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("second Wait() took %v, want ~100ms", elapsed)
	}
}

func TestKeyedRateLimiter_WaitContextCanceled(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()

	rl.Allow("host")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx, "host"); err == nil {
		t.Error("Wait() should fail when context canceled")
	}
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl := NewWithTTL(1, 1, time.Minute)
	defer rl.Stop()

	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("stale")
	now = now.Add(30 * time.Second)
	rl.Allow("fresh")

	now = now.Add(45 * time.Second)
	if got := rl.evictIdle(); got != 1 {
		t.Fatalf("evictIdle() = %d, want 1", got)
	}
	if rl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rl.Len())
	}

	// An evicted key starts over with a full bucket.
	if !rl.Allow("stale") {
		t.Error("evicted key should get a fresh limiter")
	}
}
