package alerting

import (
	"testing"
	"time"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
)

func TestRateLimiterWindow(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, Window: 300000, MaxAlerts: 10})
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		if !limiter.Allow("cpu_high", models.PriorityHigh, now) {
			t.Fatalf("admission %d should be allowed", i+1)
		}
	}
	if limiter.Allow("cpu_high", models.PriorityHigh, now) {
		t.Fatal("11th admission within the window should be declined")
	}

	// Same type at another priority is a separate budget.
	if !limiter.Allow("cpu_high", models.PriorityLow, now) {
		t.Fatal("different priority should not share the budget")
	}

	// Once the oldest admissions leave the window, room opens up again.
	later := now.Add(301 * time.Second)
	if !limiter.Allow("cpu_high", models.PriorityHigh, later) {
		t.Fatal("admission after the window expired should be allowed")
	}
}

func TestRateLimiterWindowBoundary(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, Window: 1000, MaxAlerts: 1})
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	if !limiter.Allow("x", models.PriorityInfo, now) {
		t.Fatal("first admission should pass")
	}
	if limiter.Allow("x", models.PriorityInfo, now.Add(999*time.Millisecond)) {
		t.Fatal("still inside the window")
	}
	// An admission exactly window-old has left the window.
	if !limiter.Allow("x", models.PriorityInfo, now.Add(1000*time.Millisecond)) {
		t.Fatal("admission at the window edge should pass")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: false, Window: 1000, MaxAlerts: 1})
	now := time.Now()

	for i := 0; i < 50; i++ {
		if !limiter.Allow("anything", models.PriorityCritical, now) {
			t.Fatal("disabled limiter must admit everything")
		}
	}
	if limiter.Keys() != 0 {
		t.Fatalf("disabled limiter should track nothing, got %d keys", limiter.Keys())
	}
}

func TestRateLimiterVacuum(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, Window: 1000, MaxAlerts: 5})
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	limiter.Allow("old_type", models.PriorityLow, now)
	limiter.Allow("fresh_type", models.PriorityLow, now.Add(10*time.Second))

	if got := limiter.Keys(); got != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", got)
	}

	removed := limiter.Vacuum(now.Add(10*time.Second + 500*time.Millisecond))
	if removed != 1 {
		t.Fatalf("expected 1 key vacuumed, got %d", removed)
	}
	if got := limiter.Keys(); got != 1 {
		t.Fatalf("expected 1 key left, got %d", got)
	}
}
