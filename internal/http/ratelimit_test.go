package http

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("a different client should not be affected")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	rl.allow("10.0.0.1")
	rl.mu.Lock()
	rl.clients["10.0.0.1"].requests = 60
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.allow("10.0.0.1") {
		t.Error("counter should reset after the window passes")
	}
}

func TestRateLimiterCleanupRemovesStaleEntries(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	// One entry per distinct client string, the growth pattern a caller
	// rotating forged forwarded headers produces.
	for i := 0; i < 100; i++ {
		rl.allow(fmt.Sprintf("203.0.113.%d", i))
	}

	rl.mu.Lock()
	for _, client := range rl.clients {
		client.lastRequest = time.Now().Add(-11 * time.Minute)
	}
	rl.mu.Unlock()

	rl.allow("10.0.0.1")
	rl.cleanupStaleEntries()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.clients) != 1 {
		t.Errorf("expected only the fresh client to survive cleanup, got %d entries", len(rl.clients))
	}
	if _, ok := rl.clients["10.0.0.1"]; !ok {
		t.Error("fresh client entry should survive cleanup")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter()
	rl.stop()
	rl.stop()
}
