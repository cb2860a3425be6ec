package alerting

import (
	"sync"
	"time"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
)

// RateLimiter bounds alert admission per key over a sliding window. The
// key is type + "_" + priority: alerts of the same type and priority share
// one budget regardless of source or tags.
type RateLimiter struct {
	mu      sync.Mutex
	enabled bool
	window  time.Duration
	max     int
	hits    map[string][]time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		enabled: cfg.Enabled,
		window:  time.Duration(cfg.Window) * time.Millisecond,
		max:     cfg.MaxAlerts,
		hits:    make(map[string][]time.Time),
	}
}

// Allow reports whether one more alert of this type and priority fits in
// the window, recording the admission when it does. With limiting disabled
// every call is admitted and nothing is recorded.
func (l *RateLimiter) Allow(alertType string, priority models.Priority, now time.Time) bool {
	if !l.enabled {
		return true
	}

	key := alertType + "_" + string(priority)
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.hits[key]
	kept := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}

	l.hits[key] = append(kept, now)
	return true
}

// Vacuum drops keys whose every admission has left the window and returns
// how many keys were removed. Called periodically by maintenance so quiet
// alert types do not pin memory.
func (l *RateLimiter) Vacuum(now time.Time) int {
	if !l.enabled {
		return 0
	}

	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, stamps := range l.hits {
		live := false
		for _, t := range stamps {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.hits, key)
			removed++
		}
	}
	return removed
}

// Keys returns how many distinct (type, priority) budgets are tracked.
func (l *RateLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}
