package alerting

import (
	"sort"
	"sync"
	"time"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// queueItem is one pending delivery. readyAt is the enqueue time for fresh
// alerts and the backoff deadline for retries.
type queueItem struct {
	id         string
	priority   models.Priority
	enqueuedAt time.Time
	readyAt    time.Time
}

// alertQueue buffers alerts between creation and delivery. Items are
// drained in priority order; retries stay queued until their backoff
// deadline passes.
type alertQueue struct {
	mu    sync.Mutex
	items []queueItem
}

func newAlertQueue() *alertQueue {
	return &alertQueue{}
}

func (q *alertQueue) Enqueue(item queueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// DrainReady removes and returns every item whose readyAt has passed,
// highest priority first. The stable sort preserves enqueue order within
// a priority level. Items still backing off remain queued.
func (q *alertQueue) DrainReady(now time.Time) []queueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []queueItem
	remaining := q.items[:0]
	for _, item := range q.items {
		if item.readyAt.After(now) {
			remaining = append(remaining, item)
			continue
		}
		ready = append(ready, item)
	}
	q.items = remaining

	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].priority.Weight() > ready[j].priority.Weight()
	})
	return ready
}

func (q *alertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
