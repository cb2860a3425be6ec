package alerting

import (
	"sync"
	"time"
)

// scheduler tracks one-shot escalation timers keyed by alert id. Timers
// remove themselves when they fire; Stop cancels whatever is still pending
// so no timer outlives the engine. Acknowledge and resolve never cancel a
// timer here: the fired callback re-checks alert state instead.
type scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newScheduler() *scheduler {
	return &scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arranges fn to run once after delay. Scheduling again under the
// same id replaces the previous timer.
func (s *scheduler) Schedule(id string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if prev, ok := s.timers[id]; ok {
		prev.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.remove(id)
		fn()
	})
}

func (s *scheduler) remove(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
}

// Pending returns the number of timers that have not fired yet.
func (s *scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer. Called only at shutdown.
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
